package http

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

// ClientConfig configures clients of the uigen HTTP API.
type ClientConfig struct {
	BaseURL string
	// Token is sent as a bearer token when non-empty.
	Token        string
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
}

// NewClient returns a resty client whose transport retries connection
// errors, 429 and 5xx responses via retryablehttp and, when a token is set,
// authorizes every request through an oauth2 static token source.
//
// Only idempotent methods are retried. A POST is sent exactly once, so a
// create that fails with a 5xx never runs twice.
func NewClient(cfg ClientConfig) *resty.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = orDefault(cfg.RetryWaitMin, 100*time.Millisecond)
	retryClient.RetryWaitMax = orDefault(cfg.RetryWaitMax, 2*time.Second)
	retryClient.Logger = nil
	// Return the last response instead of a "giving up" error so callers
	// can map status codes.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	var transport http.RoundTripper = &idempotentRetry{
		retry: &retryablehttp.RoundTripper{Client: retryClient},
		once:  retryClient.HTTPClient.Transport,
	}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "uigen/1.0"
	}

	return resty.NewWithClient(&http.Client{Transport: transport}).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(orDefault(cfg.Timeout, 10*time.Second)).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "application/json")
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// idempotentRetry sends GET, HEAD, OPTIONS, PUT and DELETE through the
// retrying transport and every other method through the plain one.
type idempotentRetry struct {
	retry http.RoundTripper
	once  http.RoundTripper
}

func (t *idempotentRetry) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return t.retry.RoundTrip(req)
	default:
		return t.once.RoundTrip(req)
	}
}
