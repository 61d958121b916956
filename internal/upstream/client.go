// Package upstream talks to the odds provider: authenticated fetches of the
// tree record, per-event odds and highlight feeds, all delivered as
// encrypted envelopes.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/PrathamTagline/d247-be/internal/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// Client fetches provider endpoints. Requests carry the session cookie from
// the token source and are rate limited so bursts of per-event fan-out
// don't hammer the provider.
type Client struct {
	http     *http.Client
	baseURL  string
	password string
	tokens   *TokenSource
	limiter  *rate.Limiter
	log      *logrus.Entry
}

// NewClient creates a provider client. password is the decryption key for
// the response envelopes.
func NewClient(baseURL, password string, tokens *TokenSource) *Client {
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  baseURL,
		password: password,
		tokens:   tokens,
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
		log:      logger.WithComponent("upstream"),
	}
}

// TreeRecord fetches the full sport/competition/event tree document.
func (c *Client) TreeRecord(ctx context.Context) (interface{}, error) {
	return c.fetch(ctx, "/v1/treemap", nil)
}

// Odds fetches the raw odds payload for one event.
func (c *Client) Odds(ctx context.Context, sportID, eventID int64) (interface{}, error) {
	return c.fetch(ctx, "/v1/odds", url.Values{
		"sid":  {strconv.FormatInt(sportID, 10)},
		"gmid": {strconv.FormatInt(eventID, 10)},
	})
}

// Highlight fetches the highlight-home document for one event type.
func (c *Client) Highlight(ctx context.Context, eventTypeID int64) (interface{}, error) {
	return c.fetch(ctx, "/v1/highlight", url.Values{
		"etid": {strconv.FormatInt(eventTypeID, 10)},
	})
}

// envelope is the provider's response wrapper around the encrypted body.
type envelope struct {
	Data string `json:"data"`
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) (interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring session token: %w", err)
	}
	req.Header.Set("Cookie", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// A rejected token is stale: drop it so the next call refreshes.
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.tokens.Invalidate()
		}
		return nil, fmt.Errorf("fetching %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Data == "" {
		return nil, fmt.Errorf("%s response is not an encrypted envelope", path)
	}

	doc, err := Decrypt(env.Data, c.password)
	if err != nil {
		return nil, fmt.Errorf("decrypting %s response: %w", path, err)
	}
	return doc, nil
}
