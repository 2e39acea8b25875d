// Package eventbrite is an HTTP client for the Eventbrite v3 API.
package eventbrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventbritesync/internal/domain"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Eventbrite API root.
const DefaultBaseURL = "https://www.eventbriteapi.com/v3"

// DefaultRatePerHour matches Eventbrite's default per-token quota.
const DefaultRatePerHour = 2000

const changedSinceLayout = "2006-01-02T15:04:05Z"

// Config holds the settings for Client.
type Config struct {
	BaseURL     string
	Token       string
	RatePerHour int
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// APIError is an error response from the API.
type APIError struct {
	StatusCode  int    `json:"status_code"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("eventbrite api returned status: %d", e.StatusCode)
	}
	return fmt.Sprintf("eventbrite api returned status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// Unwrap maps a 404 to domain.ErrNotFound and everything else to domain.ErrUpstream.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return domain.ErrUpstream
}

// Client calls the Eventbrite API. Requests are rate limited and go through a
// circuit breaker that opens when the API keeps failing.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

var _ domain.EventbriteClient = (*Client)(nil)

// NewClient returns a Client for cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RatePerHour > 0 {
		limit = rate.Limit(float64(cfg.RatePerHour) / 3600)
	}
	logger := cfg.Logger
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(limit, 10),
		cb: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "eventbrite-api",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state transition", "name", name, "from", from.String(), "to", to.String())
			},
		}),
		logger: logger,
	}
}

// GetCurrentUser returns the user the token belongs to.
func (c *Client) GetCurrentUser(ctx context.Context) (domain.Payload, error) {
	body, err := c.get(ctx, "/users/me/", nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// GetUserOwnedEvents returns one page of the events owned by userID.
func (c *Client) GetUserOwnedEvents(ctx context.Context, userID string, page int, opts domain.ListOptions) (domain.Page, error) {
	body, err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/owned_events/", listQuery(page, opts))
	if err != nil {
		return domain.Page{}, err
	}
	return decodePage(body, "events")
}

// GetEvent returns one event, expanding the named sub-objects.
func (c *Client) GetEvent(ctx context.Context, eventID string, expand ...string) (domain.Payload, error) {
	q := url.Values{}
	if len(expand) > 0 {
		q.Set("expand", strings.Join(expand, ","))
	}
	body, err := c.get(ctx, "/events/"+url.PathEscape(eventID)+"/", q)
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// GetEventAttendees returns one page of the attendees of eventID.
func (c *Client) GetEventAttendees(ctx context.Context, eventID string, page int, opts domain.ListOptions) (domain.Page, error) {
	body, err := c.get(ctx, "/events/"+url.PathEscape(eventID)+"/attendees/", listQuery(page, opts))
	if err != nil {
		return domain.Page{}, err
	}
	return decodePage(body, "attendees")
}

func listQuery(page int, opts domain.ListOptions) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.OrderBy != "" {
		q.Set("order_by", opts.OrderBy)
	}
	if len(opts.Expand) > 0 {
		q.Set("expand", strings.Join(opts.Expand, ","))
	}
	if opts.ChangedSince != nil {
		q.Set("changed_since", opts.ChangedSince.UTC().Format(changedSinceLayout))
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, u)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from eventbrite: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read eventbrite response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{}
		_ = json.Unmarshal(body, apiErr)
		apiErr.StatusCode = resp.StatusCode
		c.logger.Debug("eventbrite request failed", "url", u, "status", resp.StatusCode)
		return nil, apiErr
	}
	return body, nil
}

func decodeObject(body []byte) (domain.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode eventbrite response: %w", err)
	}
	return out, nil
}

func decodePage(body []byte, itemsKey string) (domain.Page, error) {
	var meta struct {
		Pagination domain.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return domain.Page{}, fmt.Errorf("failed to decode pagination: %w", err)
	}
	obj, err := decodeObject(body)
	if err != nil {
		return domain.Page{}, err
	}
	raw, _ := obj[itemsKey].([]any)
	items := make([]domain.Payload, 0, len(raw))
	for i, it := range raw {
		item, ok := it.(map[string]any)
		if !ok {
			return domain.Page{}, fmt.Errorf("%s[%d]: want object, got %T", itemsKey, i, it)
		}
		items = append(items, item)
	}
	return domain.Page{Items: items, Pagination: meta.Pagination}, nil
}
