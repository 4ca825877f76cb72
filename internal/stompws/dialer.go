package stompws

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatwire/internal/logging"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	acceptVersions          = "1.1,1.2"
)

var subprotocols = []string{"v12.stomp", "v11.stomp"}

// Dialer opens authenticated STOMP sessions over a websocket. It never
// retries; callers own the retry policy.
type Dialer struct {
	URL              string
	Host             string
	HandshakeTimeout time.Duration
	// HeartBeat is offered in both directions. Zero disables heart-beating.
	HeartBeat time.Duration
	WS        *websocket.Dialer
	Logger    *logging.Logger
}

// Open dials the broker and resolves once the broker answers CONNECT with
// CONNECTED. ctx bounds the handshake only; cancelling it later has no effect
// on the returned connection.
func (d Dialer) Open(ctx context.Context, token string) (*Conn, error) {
	if strings.TrimSpace(d.URL) == "" {
		return nil, ErrMissingURL
	}
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wsDialer := websocket.Dialer{Proxy: http.ProxyFromEnvironment, HandshakeTimeout: timeout}
	if d.WS != nil {
		wsDialer = *d.WS
	}
	wsDialer.Subprotocols = subprotocols

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	d.Logger.Debug("dialing stomp broker", logging.Field("url", d.URL))
	ws, resp, err := wsDialer.DialContext(ctx, d.URL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			d.Logger.Warn("stomp upgrade rejected",
				logging.Field("status", resp.Status),
				logging.Field("response", logging.FormatPayload(data)),
			)
			return nil, &HandshakeError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(data)),
			}
		}
		return nil, fmt.Errorf("dial stomp broker: %w", err)
	}

	// Closing the socket is the only way to interrupt a blocked read, so a
	// cancelled ctx tears the half-open connection down.
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	conn, hsErr := d.handshake(ws, token)
	if !stop() {
		_ = ws.Close()
		return nil, fmt.Errorf("stomp handshake aborted: %w", context.Cause(ctx))
	}
	if hsErr != nil {
		_ = ws.Close()
		return nil, hsErr
	}

	conn.start()
	d.Logger.Debug("stomp session established",
		logging.Field("connection_id", conn.id),
		logging.Field("version", conn.version),
		logging.Field("server", conn.server),
		logging.Field("send_heartbeat", conn.sendEvery.String()),
		logging.Field("read_timeout", conn.readTimeout.String()),
	)
	return conn, nil
}

func (d Dialer) handshake(ws *websocket.Conn, token string) (*Conn, error) {
	beat := strconv.FormatInt(d.HeartBeat.Milliseconds(), 10)
	connect := frame.New(frame.CONNECT,
		frame.AcceptVersion, acceptVersions,
		frame.Host, d.host(),
		frame.HeartBeat, beat+","+beat,
		"Authorization", "Bearer "+token,
	)
	data, err := encodeFrame(connect)
	if err != nil {
		return nil, err
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("send CONNECT: %w", err)
	}

	reader := frame.NewReader(&messageReader{ws: ws})
	for {
		f, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("await CONNECTED: %w", err)
		}
		if f == nil {
			continue
		}
		switch f.Command {
		case frame.CONNECTED:
			conn := newConn(ws, reader, d.Logger)
			conn.version = f.Header.Get(frame.Version)
			conn.server = f.Header.Get(frame.Server)
			conn.negotiateHeartBeat(d.HeartBeat, f.Header.Get(frame.HeartBeat))
			return conn, nil
		case frame.ERROR:
			hsErr := &HandshakeError{
				Message: f.Header.Get(frame.Message),
				Body:    strings.TrimSpace(string(f.Body)),
			}
			d.Logger.Warn("stomp CONNECT rejected",
				logging.Field("message", hsErr.Message),
				logging.Field("body", logging.FormatPayload(f.Body)),
			)
			return nil, hsErr
		default:
			return nil, fmt.Errorf("unexpected %s frame during handshake", f.Command)
		}
	}
}

func (d Dialer) host() string {
	if strings.TrimSpace(d.Host) != "" {
		return d.Host
	}
	parsed, err := url.Parse(d.URL)
	if err != nil || parsed.Hostname() == "" {
		return "/"
	}
	return parsed.Hostname()
}

func newConn(ws *websocket.Conn, reader *frame.Reader, logger *logging.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:       id,
		ws:       ws,
		reader:   reader,
		logger:   logger.With(logging.Field("connection_id", id)),
		subs:     map[string]*subscription{},
		receipts: map[string]chan struct{}{},
		done:     make(chan struct{}),
	}
}

// negotiateHeartBeat applies the STOMP 1.1 rule: each direction uses the
// larger of what one side can send and the other wants to receive.
func (c *Conn) negotiateHeartBeat(ours time.Duration, theirs string) {
	if ours <= 0 || strings.TrimSpace(theirs) == "" {
		return
	}
	serverSend, serverWant, err := frame.ParseHeartBeat(theirs)
	if err != nil {
		c.logger.Debug("ignoring malformed heart-beat header", logging.Field("value", theirs), logging.Field("error", err))
		return
	}
	if serverWant > 0 {
		c.sendEvery = max(ours, serverWant)
	}
	if serverSend > 0 {
		// Allow a few missed beats before declaring the broker gone.
		c.readTimeout = 3 * max(ours, serverSend)
	}
}
