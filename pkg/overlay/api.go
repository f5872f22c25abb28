package overlay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/iffduels/overlay-server/internal/proto"
)

// PlayerDetail is the player payload and REST detail shape.
type PlayerDetail = proto.PlayerDetail

// TeamDetail is the team payload and REST detail shape.
type TeamDetail = proto.TeamDetail

// MatchData is the scoreboard payload.
type MatchData = proto.MatchData

// APIClient is the REST side of the overlay contract: the access gate and
// the entity detail fetches overlays use to bootstrap and to resolve
// reference-only events.
type APIClient struct {
	baseURL string
	httpc   *http.Client
}

// NewAPIClient builds a REST client for the session's server.
func NewAPIClient(session Session) *APIClient {
	return &APIClient{
		baseURL: session.BaseURL,
		httpc:   http.DefaultClient,
	}
}

// Access trades the shared access key for a connection token.
func Access(ctx context.Context, baseURL, accessKey, name, role string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"accessKey": accessKey,
		"name":      name,
		"role":      role,
	})
	if err != nil {
		return "", fmt.Errorf("marshal access request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/access", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build access request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("access request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("access request: status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode access response: %w", err)
	}
	return out.Token, nil
}

// PlayerByID fetches full player detail. (nil, nil) means the player does
// not exist; overlays render nothing for it.
func (c *APIClient) PlayerByID(ctx context.Context, id int64) (*PlayerDetail, error) {
	var out struct {
		Player *PlayerDetail `json:"player"`
	}
	if err := c.getJSON(ctx, "/api/iff/player/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return out.Player, nil
}

// TeamByID fetches full team detail, (nil, nil) for a missing id. This is
// the resolver overlays plug into the display controller.
func (c *APIClient) TeamByID(ctx context.Context, id int64) (*TeamDetail, error) {
	var out struct {
		Team *TeamDetail `json:"team"`
	}
	if err := c.getJSON(ctx, "/api/iff/love-and-war/team/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return out.Team, nil
}

func (c *APIClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
