// Package auth is the session auth collaborator: sign-in, sign-up and
// sign-out against the uigen auth API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	uhttp "github.com/fyrsmithlabs/uigen/internal/http"
	"github.com/fyrsmithlabs/uigen/internal/logging"
)

var (
	ErrSignOutFailed      = errors.New("sign out failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSignUpRejected     = errors.New("sign up rejected")
	ErrAuthUnavailable    = errors.New("auth service unavailable")
)

// Mode selects which form the auth surface shows.
type Mode string

const (
	ModeSignIn Mode = "signin"
	ModeSignUp Mode = "signup"
)

// Identity is the signed-in user. It never changes for the lifetime of a
// session controller.
type Identity struct {
	ID    string
	Email string
}

// Ender ends the current session.
type Ender interface {
	EndSession(ctx context.Context) error
}

// Service is the full auth surface.
type Service interface {
	Ender
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	// Token returns the bearer token of the current session, or "".
	Token() string
}

// Client implements Service over HTTP.
type Client struct {
	resty  *resty.Client
	logger *logging.Logger

	mu    sync.RWMutex
	token string
}

var _ Service = (*Client)(nil)

// New creates an auth client. cfg.Token, when set, is the session restored
// from configuration.
func New(cfg uhttp.ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	token := cfg.Token
	cfg.Token = ""
	return &Client{resty: uhttp.NewClient(cfg), logger: logger.Named("auth"), token: token}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	return c.authenticate(ctx, uhttp.RouteSignIn, email, password)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (Identity, error) {
	return c.authenticate(ctx, uhttp.RouteSignUp, email, password)
}

func (c *Client) authenticate(ctx context.Context, route, email, password string) (Identity, error) {
	var body uhttp.SessionResponse
	var failure uhttp.ErrorResponse

	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(uhttp.Credentials{Email: email, Password: password}).
		SetResult(&body).
		SetError(&failure).
		Post(route)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized:
		return Identity{}, ErrInvalidCredentials
	case code >= http.StatusInternalServerError:
		return Identity{}, fmt.Errorf("%w: status %d", ErrAuthUnavailable, code)
	case resp.IsError():
		return Identity{}, fmt.Errorf("%w: %s", ErrSignUpRejected, failure.Message)
	}
	if body.User.ID == "" || body.Token == "" {
		return Identity{}, fmt.Errorf("%w: incomplete session response", ErrAuthUnavailable)
	}

	c.mu.Lock()
	c.token = body.Token
	c.mu.Unlock()

	id := Identity{ID: body.User.ID, Email: body.User.Email}
	c.logger.Info(logging.WithUserID(ctx, id.ID), "session started",
		zap.String("route", route), logging.RedactedString("token", body.Token))
	return id, nil
}

// EndSession revokes the current session. Any failure wraps
// ErrSignOutFailed, and the local token is kept so the call can be retried.
func (c *Client) EndSession(ctx context.Context) error {
	token := c.Token()
	if token == "" {
		return fmt.Errorf("%w: no active session", ErrSignOutFailed)
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetAuthToken(token).
		Post(uhttp.RouteSignOut)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignOutFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", ErrSignOutFailed, resp.StatusCode())
	}

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	c.logger.Info(ctx, "session ended")
	return nil
}
