package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"chatwire/internal/config"
	"chatwire/internal/logging"
)

const maxResponseBytes = 1 << 20

type ChatClient struct {
	http      *http.Client
	endpoints config.APIEndpoints
	logger    *logging.Logger
}

func New(httpClient *http.Client, endpoints config.APIEndpoints, logger *logging.Logger) *ChatClient {
	if logger == nil {
		panic("client.New: logger must not be nil")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ChatClient{http: httpClient, endpoints: endpoints, logger: logger.Component("api")}
}

// do sends req and decodes a JSON response into out. Non-2xx responses are
// returned as *HTTPStatusError.
func (c *ChatClient) do(req *http.Request, action string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.logger.Debugf("%s %s -> %s", req.Method, req.URL.Redacted(), resp.Status)

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn(action+" rejected",
			logging.Field("status", resp.Status),
			logging.Field("content_type", resp.Header.Get("Content-Type")),
			logging.Field("response", logging.FormatPayload(data)),
		)
		return &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("invalid "+action+" JSON",
			logging.Field("url", req.URL.Redacted()),
			logging.Field("error", err),
			logging.Field("response", logging.FormatPayload(data)),
		)
		return err
	}
	return nil
}

func newJSONRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
