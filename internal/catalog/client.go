package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/gallery/internal/models"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Art Institute of Chicago API
const DefaultBaseURL = "https://api.artic.edu"

// DefaultFields is the field list requested for every artwork.
// See https://api.artic.edu/docs/#fields
const DefaultFields = "id,title,artist_display,date_display,main_reference_number,image_id,medium_display,place_of_origin,is_on_view,gallery_title,artist_title"

// The API allows 60 requests a minute per client.
// See https://api.artic.edu/docs/#conventions
const (
	DefaultRequestsPerSecond = 1.0
	DefaultBurst             = 10
)

// ErrEmptyBody is returned when a successful response carries no payload
var ErrEmptyBody = errors.New("empty response body")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP response status code: %d, body: %s", e.Code, e.Body)
}

// Client represents an Art Institute of Chicago API client
type Client struct {
	BaseURL    string
	UserAgent  string
	Fields     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new catalog client
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Fields:    DefaultFields,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &loggingTransport{next: http.DefaultTransport},
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
	}
}

// SetRateLimit paces outgoing requests. A non-positive rate disables pacing.
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Search fetches one page of artworks matching query. An empty query browses
// the whole collection.
func (c *Client) Search(ctx context.Context, query string, page, limit int) (*models.ArtworkListResponse, error) {
	params := url.Values{}
	params.Set("fields", c.Fields)
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	searchURL := fmt.Sprintf("%s/api/v1/artworks/search?%s", c.BaseURL, params.Encode())

	var resp models.ArtworkListResponse
	if err := c.getJSON(ctx, searchURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to search artworks: %w", err)
	}
	return &resp, nil
}

// Artwork fetches a single artwork by its catalog id
func (c *Client) Artwork(ctx context.Context, id int) (*models.ArtworkResponse, error) {
	params := url.Values{}
	params.Set("fields", c.Fields)
	artworkURL := fmt.Sprintf("%s/api/v1/artworks/%d?%s", c.BaseURL, id, params.Encode())

	var resp models.ArtworkResponse
	if err := c.getJSON(ctx, artworkURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch artwork %d: %w", id, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("failed to fetch artwork %d: %w", id, ErrEmptyBody)
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request not sent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		// The API asks clients to identify themselves with this header
		req.Header.Set("AIC-User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
