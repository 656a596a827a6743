// Package directory is the HTTP client for the remote project directory.
//
// Responses are validated here, at the boundary: a listing containing a
// malformed project is treated as the directory being unavailable.
package directory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	uhttp "github.com/fyrsmithlabs/uigen/internal/http"
	"github.com/fyrsmithlabs/uigen/internal/logging"
	"github.com/fyrsmithlabs/uigen/internal/project"
)

const instrumentationName = "github.com/fyrsmithlabs/uigen/internal/directory"

// Client implements project.Directory over HTTP.
type Client struct {
	resty  *resty.Client
	logger *logging.Logger
	tracer trace.Tracer
}

var _ project.Directory = (*Client)(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider sets where spans go. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// New creates a directory client.
func New(cfg uhttp.ClientConfig, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	return &Client{
		resty:  uhttp.NewClient(cfg),
		logger: logger.Named("directory"),
		tracer: o.tracerProvider.Tracer(instrumentationName),
	}
}

// List fetches every project of the signed-in user. Any transport, status
// or shape failure is reported as project.ErrDirectoryUnavailable.
func (c *Client) List(ctx context.Context) (_ []project.Project, err error) {
	ctx, span := c.tracer.Start(ctx, "directory.List", trace.WithSpanKind(trace.SpanKindClient))
	defer func() { endSpan(span, err) }()

	var body uhttp.ProjectsResponse
	var failure uhttp.ErrorResponse

	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&failure).
		Get(uhttp.RouteProjects)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", project.ErrDirectoryUnavailable, err)
	}
	c.logger.Trace(ctx, "listing response",
		zap.Int("status", resp.StatusCode()), zap.Int("bytes", len(resp.Body())))
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s", project.ErrDirectoryUnavailable, describe(resp, failure))
	}
	if err := project.ValidateAll(body.Projects); err != nil {
		return nil, fmt.Errorf("%w: invalid listing: %v", project.ErrDirectoryUnavailable, err)
	}

	span.SetAttributes(attribute.Int("projects.count", len(body.Projects)))
	c.logger.Debug(ctx, "projects listed", zap.Int("count", len(body.Projects)))
	if body.Projects == nil {
		return []project.Project{}, nil
	}
	return body.Projects, nil
}

// Create requests a new project. 4xx responses wrap
// project.ErrCreateRejected; transport and 5xx failures wrap
// project.ErrDirectoryUnavailable.
func (c *Client) Create(ctx context.Context, spec project.CreateSpec) (_ *project.Project, err error) {
	ctx, span := c.tracer.Start(ctx, "directory.Create", trace.WithSpanKind(trace.SpanKindClient))
	defer func() { endSpan(span, err) }()

	var body uhttp.ProjectResponse
	var failure uhttp.ErrorResponse

	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(spec).
		SetResult(&body).
		SetError(&failure).
		Post(uhttp.RouteProjects)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", project.ErrDirectoryUnavailable, err)
	}
	switch {
	case resp.StatusCode() >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %s", project.ErrDirectoryUnavailable, describe(resp, failure))
	case resp.IsError():
		return nil, fmt.Errorf("%w: %s", project.ErrCreateRejected, describe(resp, failure))
	}

	p := body.Project
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid project: %v", project.ErrDirectoryUnavailable, err)
	}

	span.SetAttributes(attribute.String("project.id", p.ID))
	ctx = logging.WithProjectID(ctx, p.ID)
	c.logger.Info(ctx, "project created")
	return &p, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func describe(resp *resty.Response, failure uhttp.ErrorResponse) string {
	if failure.Message != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode(), failure.Message)
	}
	return fmt.Sprintf("status %d", resp.StatusCode())
}
