// Package github enriches a run with repository metadata from the GitHub API.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	logger  *slog.Logger
	baseURL string
	timeout time.Duration
}

type Option func(*options)

// WithLogger logs one debug line per request and response.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", "duration", dur, "error", err)
		return resp, err
	}
	t.logger.Debug("github api response", "status", resp.StatusCode, "duration", dur)
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{timeout: 30 * time.Second}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	transport := http.DefaultTransport
	if o.logger != nil {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport, Timeout: o.timeout}

	gh := github.NewClient(tc)
	if o.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base url %q: %w", o.baseURL, err)
		}
		gh.BaseURL = u
		gh.UploadURL = u
	}

	return &Client{Client: gh, HTTP: tc}, nil
}
