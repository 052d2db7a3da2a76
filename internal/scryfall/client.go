// Package scryfall fetches card search results from the Scryfall API.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/commander-rater/internal/logging"
	"github.com/ramonehamilton/commander-rater/internal/metrics"
	"github.com/ramonehamilton/commander-rater/internal/version"
)

const (
	// DefaultBaseURL is the public Scryfall API.
	DefaultBaseURL = "https://api.scryfall.com"

	// DefaultPageDelay is the pause between successive page requests.
	DefaultPageDelay = 50 * time.Millisecond

	// CommanderQuery selects every paper card that can lead a commander deck.
	CommanderQuery = "is:commander game:paper legal:commander"

	// OrderReleased sorts search results by release date.
	OrderReleased = "released"

	requestTimeout = 30 * time.Second
)

// Client is a Scryfall search client. It never retries; the only pacing is the
// fixed delay between pages of one search.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	pageDelay  time.Duration
	metrics    *metrics.SyncMetrics
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another API root (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithPageDelay sets the delay between page requests. Zero disables it.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// WithMetrics records request and page counters.
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a new Scryfall client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL:   DefaultBaseURL,
		userAgent: version.UserAgent("commander-rater"),
		pageDelay: DefaultPageDelay,
		logger:    logging.NewLogger("scryfall"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL builds the first-page URL of a paper-only search against the client's base URL.
func (c *Client) SearchURL(query, order string) string {
	return SearchURL(c.baseURL, query, order)
}

// SearchURL builds a /cards/search URL restricted to paper products.
func SearchURL(baseURL, query, order string) string {
	params := url.Values{}
	params.Set("order", order)
	params.Set("game", "paper")
	params.Set("q", query)
	return strings.TrimRight(baseURL, "/") + "/cards/search?" + params.Encode()
}

// FetchAll follows next_page links from startURL until Scryfall reports no more
// pages, returning every card in the order received.
// The first request is sent immediately; each later one waits the full page
// delay after the previous page has arrived.
func (c *Client) FetchAll(ctx context.Context, startURL string) ([]Card, error) {
	var collected []Card
	next := startURL
	page := 0

	for next != "" {
		if page > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, fmt.Errorf("waiting for page %d: %w", page+1, err)
			}
		}
		page++

		result, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		collected = append(collected, result.Data...)
		c.logger.Debug().
			Int("page", page).
			Int("cards", len(result.Data)).
			Int("collected", len(collected)).
			Int("total_cards", result.TotalCards).
			Msg("fetched search page")

		next = ""
		if result.HasMore {
			if result.NextPage == "" {
				c.logger.Warn().Int("page", page).Msg("has_more set without next_page, stopping")
			} else {
				next = result.NextPage
			}
		}
	}

	c.logger.Info().Int("pages", page).Int("cards", len(collected)).Msg("search complete")

	return collected, nil
}

// pause blocks for the page delay or until ctx is done.
func (c *Client) pause(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.pageDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetchPage performs one GET and decodes a validated search page.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest("error")
		return nil, &NetworkError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.ObserveRequest(strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Object != "error" {
			apiErr = &APIError{Details: strings.TrimSpace(string(body))}
		}
		apiErr.Status = resp.StatusCode
		apiErr.URL = pageURL
		return nil, apiErr
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &APIError{
			Code:    CodeInvalidResponse,
			Status:  resp.StatusCode,
			Details: fmt.Sprintf("failed to parse search page: %v", err),
			URL:     pageURL,
		}
	}
	if err := result.validate(); err != nil {
		return nil, &APIError{
			Code:    CodeInvalidResponse,
			Status:  resp.StatusCode,
			Details: err.Error(),
			URL:     pageURL,
		}
	}

	c.metrics.ObservePage()

	return &result, nil
}
