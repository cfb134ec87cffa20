package adapters

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
)

// Result is the raw JSON object returned by a provider. A nil Result means
// the call failed for any reason and the integration must be skipped.
type Result map[string]any

var (
	ErrStatus   = errors.New("adapters: unexpected status")
	ErrDecode   = errors.New("adapters: malformed response body")
	ErrProvider = errors.New("adapters: provider reported failure")
)

// maxBody caps how much of a provider response is read.
const maxBody = 1 << 20

// ClientConfig bounds a single integration's HTTP calls.
type ClientConfig struct {
	Timeout            time.Duration
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

// NewHTTPClient builds a client with a dial timeout and a total timeout.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = cfg.Timeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connect}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: cfg.Timeout,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // ip-api free tier is HTTP only
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: transport}
}

// Request describes one GET call to a provider.
type Request struct {
	Integration string
	URL         string
	// Redact lists query parameters masked before the URL is logged.
	Redact []string
	// Check inspects a decoded body for provider-declared failures.
	Check func(Result) error
}

// Fetcher executes provider calls with the shared failure discipline:
// transport errors, non-200 statuses, malformed bodies and provider soft
// failures are logged and yield a nil Result. There are no retries.
type Fetcher struct {
	base   BaseAdapter
	client *http.Client
}

func NewFetcher(l logger.Logger, client *http.Client) *Fetcher {
	if client == nil {
		client = NewHTTPClient(ClientConfig{Timeout: 10 * time.Second, ConnectTimeout: 5 * time.Second})
	}
	return &Fetcher{base: NewBaseAdapter(l), client: client}
}

// Client exposes the underlying HTTP client.
func (f *Fetcher) Client() *http.Client { return f.client }

// Fetch performs req and returns the decoded body, or nil on failure.
func (f *Fetcher) Fetch(ctx context.Context, req Request) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	target := RedactURL(req.URL, req.Redact...)
	start := time.Now()
	result, outcome, err := f.do(ctx, req)
	elapsed := time.Since(start)
	integrationDuration.WithLabelValues(req.Integration).Observe(elapsed.Seconds())
	integrationCalls.WithLabelValues(req.Integration, outcome).Inc()
	f.base.LogCall(req.Integration, target, outcome, elapsed, err)
	if err != nil {
		return nil
	}
	return result
}

func (f *Fetcher) do(ctx context.Context, req Request) (Result, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, OutcomeTransport, fmt.Errorf("%s: build request: %w", req.Integration, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, OutcomeTransport, fmt.Errorf("%s: request failed: %w", req.Integration, redactErr(err, req.Redact))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, OutcomeTransport, fmt.Errorf("%s: read body: %w", req.Integration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, OutcomeHTTPStatus, fmt.Errorf("%s: %w %d", req.Integration, ErrStatus, resp.StatusCode)
	}
	var out Result
	if err := json.Unmarshal(body, &out); err != nil || out == nil {
		return nil, OutcomeDecode, fmt.Errorf("%s: %w", req.Integration, ErrDecode)
	}
	if req.Check != nil {
		if err := req.Check(out); err != nil {
			return nil, OutcomeProviderError, fmt.Errorf("%s: %w: %v", req.Integration, ErrProvider, err)
		}
	}
	return out, OutcomeOK, nil
}

// RedactURL masks the named query parameters of raw for logging.
func RedactURL(raw string, params ...string) string {
	if len(params) == 0 {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	for _, p := range params {
		if v := q.Get(p); v != "" {
			q.Set(p, secrets.Mask(v))
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// url.Error embeds the full request URL, API keys included.
func redactErr(err error, params []string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &url.Error{Op: uerr.Op, URL: RedactURL(uerr.URL, params...), Err: uerr.Err}
	}
	return err
}
