// =============================================================================
// Bartscher Feed Generator - HTTP Fetch Client
// =============================================================================
//
// The exchange-rate and availability fetchers both download a small text
// document with a single GET. This client is what they share:
//
//   - one *http.Client with a timeout
//   - a token-bucket limiter so that repeated runs stay polite to the vendor
//   - status checking: anything outside 2xx is a network error
//
// Failed fetches are not retried; the error aborts the run.
//
// =============================================================================

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
)

// maxBodySize is the default cap on a downloaded document.
const maxBodySize = 32 << 20

// Getter downloads a document. It is implemented by *Client and by test fakes.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration

	// RequestsPerSecond limits outbound requests. Zero or less disables it.
	RequestsPerSecond float64

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize caps a response body in bytes. Zero selects 32 MiB.
	MaxBodySize int64
}

// Client is a rate-limited HTTP GET client.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
	logger    *zap.Logger
}

// NewClient creates a Client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = maxBodySize
	}

	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   limiter,
		userAgent: opts.UserAgent,
		maxBody:   maxBody,
		logger:    logger,
	}
}

// Get downloads url and returns the response body.
//
// RETURNS:
//   - The body bytes on a 2xx response.
//   - A network-kind error if the request cannot be made, the server
//     answers with a non-2xx status, or the body cannot be read.
//   - A parse-kind error if the body is larger than the configured cap.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	op := "GET " + url

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, feederr.Network(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, feederr.Network(op, fmt.Errorf("failed to create request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, feederr.Network(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, feederr.Network(op, fmt.Errorf("unexpected status: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, feederr.Network(op, fmt.Errorf("failed to read body: %w", err))
	}
	if int64(len(body)) > c.maxBody {
		return nil, feederr.Parse(op, fmt.Errorf("body exceeds %d bytes", c.maxBody))
	}

	c.logger.Debug("fetched document",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return body, nil
}
