// Package weather fetches historical station reports from the Iowa Environmental
// Mesonet ASOS archive.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the IEM ASOS download service.
	DefaultBaseURL = "https://mesonet.agron.iastate.edu/cgi-bin/request/asos.py"

	maxIdleConns    = 4
	idleConnTimeout = 90 * time.Second
)

// ErrInvalidRange is returned when the end date precedes the start date.
var ErrInvalidRange = errors.New("invalid date range: end before start")

// RetryPolicy controls how often and how patiently the archive is queried.
// Delays are fixed: no jitter and no growth between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration // wait between failed attempts
	Timeout     time.Duration // per-attempt request timeout
}

// DefaultRetryPolicy matches the archive's published rate limiting guidance.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 6,
	Delay:       5 * time.Second,
	Timeout:     300 * time.Second,
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. Its Timeout is overridden by the
// retry policy.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL sets the archive endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// Client downloads comma-delimited ASOS archives.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     RetryPolicy
}

// NewClient creates an archive client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    maxIdleConns,
				IdleConnTimeout: idleConnTimeout,
			},
		},
		policy: DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.MaxAttempts < 1 {
		c.policy.MaxAttempts = 1
	}
	return c
}

// BuildURL returns the request URL for station between the start and end dates.
// The archive's end date is exclusive, so one day is added to keep end inclusive.
func (c *Client) BuildURL(station string, start, end time.Time) string {
	start = start.UTC()
	last := end.UTC().AddDate(0, 0, 1)

	q := url.Values{}
	q.Set("data", "all")
	q.Set("tz", "Etc/UTC")
	q.Set("format", "comma")
	q.Set("latlon", "no")
	q.Set("missing", "null")
	q.Set("trace", "null")
	q.Add("report_type", "1")
	q.Add("report_type", "2")
	q.Set("year1", fmt.Sprintf("%d", start.Year()))
	q.Set("month1", fmt.Sprintf("%02d", int(start.Month())))
	q.Set("day1", fmt.Sprintf("%02d", start.Day()))
	q.Set("year2", fmt.Sprintf("%d", last.Year()))
	q.Set("month2", fmt.Sprintf("%02d", int(last.Month())))
	q.Set("day2", fmt.Sprintf("%02d", last.Day()))
	q.Set("station", strings.ToUpper(station))

	return c.baseURL + "?" + q.Encode()
}

// Fetch downloads the archive block for station. When every attempt fails the
// block is empty and the error nil, so callers carry on with no weather data.
// An error is only returned for an invalid range or a cancelled context.
func (c *Client) Fetch(ctx context.Context, station string, start, end time.Time) (string, error) {
	if end.Before(start) {
		return "", ErrInvalidRange
	}

	uri := c.BuildURL(station, start, end)

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		body, err := c.get(ctx, uri)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		log.Printf("weather: attempt %d/%d for %s failed: %v", attempt, c.policy.MaxAttempts, station, err)

		if attempt == c.policy.MaxAttempts {
			break
		}
		select {
		case <-time.After(c.policy.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	log.Printf("weather: exhausted %d attempts for %s, continuing without weather data", c.policy.MaxAttempts, station)
	return "", nil
}

func (c *Client) get(ctx context.Context, uri string) (string, error) {
	if c.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	body := string(data)
	if strings.HasPrefix(body, "ERROR") {
		return "", fmt.Errorf("archive error: %s", strings.TrimSpace(firstLine(body)))
	}
	return body, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
