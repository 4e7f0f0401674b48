package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fpl-points-predictor/internal/store"
)

// ErrStatus is wrapped by FetchRaw when the upstream answers with a non-2xx code.
var ErrStatus = errors.New("unexpected http status")

type Client struct {
	HTTP         *http.Client
	Store        *store.Store
	DatasetURL   string
	APIURL       string
	UserAgent    string
	Sleep        time.Duration
	PrettyWrite  bool
	UseCache     bool
	DisableWrite bool
}

func NewClient(st *store.Store) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: 20 * time.Second},
		Store:       st,
		DatasetURL:  "https://raw.githubusercontent.com/vaastav/Fantasy-Premier-League/master/data",
		APIURL:      "https://fantasy.premierleague.com/api",
		UserAgent:   "fpl-points-predictor/1.0",
		PrettyWrite: true,
		UseCache:    true,
	}
}

// FetchRaw downloads baseURL+urlPath and writes it to relPath.
// Returns raw bytes (from cache or network).
func (c *Client) FetchRaw(ctx context.Context, baseURL string, urlPath string, relPath string, force bool) ([]byte, error) {
	if !force && c.UseCache && c.Store.Exists(relPath) {
		return c.Store.ReadRaw(relPath)
	}

	if c.Sleep > 0 {
		select {
		case <-time.After(c.Sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+urlPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("GET %s: %w: %d body=%s", urlPath, ErrStatus, resp.StatusCode, string(snippet))
	}

	if !c.DisableWrite {
		if err := c.Store.WriteRaw(relPath, body, c.PrettyWrite); err != nil {
			return nil, err
		}
	}
	return body, nil
}
