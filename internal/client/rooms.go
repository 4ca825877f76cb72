package client

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"chatwire/internal/logging"
)

func (c *ChatClient) FetchRooms(ctx context.Context, accessToken string) ([]Room, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return nil, &HTTPStatusError{StatusCode: http.StatusUnauthorized, Status: "missing access token"}
	}
	c.logger.Debug("fetching chat rooms", logging.Field("url", c.endpoints.RoomsURL))
	req, err := newJSONRequest(ctx, http.MethodGet, c.endpoints.RoomsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var rooms []Room
	if err := c.do(req, "rooms request", &rooms); err != nil {
		return nil, err
	}
	normalized := normalizeRooms(rooms)
	c.logger.Debug("chat rooms loaded", logging.Field("count", len(normalized)))
	return normalized, nil
}

func normalizeRooms(rooms []Room) []Room {
	normalized := make([]Room, 0, len(rooms))
	seen := map[string]struct{}{}
	for _, room := range rooms {
		id := strings.TrimSpace(room.ID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		name := strings.TrimSpace(room.Name)
		if name == "" {
			name = id
		}
		normalized = append(normalized, Room{ID: id, Name: name})
	}
	slices.SortFunc(normalized, func(a, b Room) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return normalized
}

func RoomsEqual(a []Room, b []Room) bool {
	return slices.Equal(a, b)
}
