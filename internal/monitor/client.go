package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
)

const (
	servicesPath = "/api/services"
	healthPath   = "/api/healthz"
	probePath    = "/api/service/{name}"

	userAgent = "discoverydash"
)

var (
	// ErrUnexpectedStatus is returned when the gateway answers with a non-2xx code.
	ErrUnexpectedStatus = errors.New("monitor: unexpected status")
	// ErrMalformedPayload is returned when a response body has the wrong shape.
	ErrMalformedPayload = errors.New("monitor: malformed payload")
)

// Options configures a Client.
type Options struct {
	// BaseURL of the discovery gateway, e.g. http://gateway:8000.
	BaseURL string
	// RequestTimeout bounds the aggregate services and health requests.
	RequestTimeout time.Duration
	// ProbeTimeout bounds each per-service probe. Zero leaves probes unbounded.
	ProbeTimeout time.Duration
	// Now is the local clock. Defaults to time.Now.
	Now func() time.Time
}

// Client talks to the discovery gateway.
type Client struct {
	http           *req.Client
	requestTimeout time.Duration
	probeTimeout   time.Duration
	now            func() time.Time
}

// NewClient creates a gateway client.
func NewClient(opts Options) *Client {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	httpClient := req.C().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetUserAgent(userAgent).
		SetCommonHeader("Accept", "application/json").
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	return &Client{
		http:           httpClient,
		requestTimeout: opts.RequestTimeout,
		probeTimeout:   opts.ProbeTimeout,
		now:            now,
	}
}

// getBody issues a GET and returns the body of a 2xx response.
func (c *Client) getBody(ctx context.Context, timeout time.Duration, path string, pathParams map[string]string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(pathParams).
		Get(path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("get %s: request timed out: %w", path, err)
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("get %s: %w: %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("get %s: read body: %w", path, err)
	}
	return body, nil
}

func decodeError(what string, err error) error {
	return fmt.Errorf("decode %s: %w: %v", what, ErrMalformedPayload, err)
}
