package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/forumsession/internal/client/credstore"
	"github.com/dmitrijs2005/forumsession/internal/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"
	bearerPrefix        = "Bearer "
)

// Funcs adapts plain functions to Middleware. Nil fields are no-ops.
type Funcs struct {
	BeforeFunc func(req *http.Request) (*http.Request, error)
	AfterFunc  func(req *http.Request, resp *Response, err error)
}

func (f Funcs) Before(req *http.Request) (*http.Request, error) {
	if f.BeforeFunc == nil {
		return req, nil
	}
	return f.BeforeFunc(req)
}

func (f Funcs) After(req *http.Request, resp *Response, err error) {
	if f.AfterFunc != nil {
		f.AfterFunc(req, resp, err)
	}
}

// BearerAuth attaches "Authorization: Bearer <token>" to every request while
// the store holds a credential. Endpoints are not special-cased.
func BearerAuth(store credstore.Store) Middleware {
	return Funcs{BeforeFunc: func(req *http.Request) (*http.Request, error) {
		token, err := store.Get(req.Context())
		if err != nil {
			return nil, fmt.Errorf("read credential: %w", err)
		}
		if token != "" {
			req.Header.Set(AuthorizationHeader, bearerPrefix+token)
		}
		return req, nil
	}}
}

// Invalidator is notified after a 401 has cleared the stored credential.
type Invalidator interface {
	Invalidate()
}

// ClearOnUnauthorized clears the store on any 401 response, then notifies
// invalidators. The original error still reaches the caller unchanged; this
// hook neither retries nor navigates.
func ClearOnUnauthorized(store credstore.Store, log logging.Logger, invalidators ...Invalidator) Middleware {
	return Funcs{AfterFunc: func(req *http.Request, resp *Response, err error) {
		if !errors.Is(err, ErrUnauthorized) {
			return
		}
		ctx := context.WithoutCancel(req.Context())
		if cerr := store.Clear(ctx); cerr != nil {
			log.Error(ctx, "failed to clear credential after 401", "path", req.URL.Path, "err", cerr)
		}
		for _, inv := range invalidators {
			inv.Invalidate()
		}
		log.Info(ctx, "credential invalidated by server", "path", req.URL.Path)
	}}
}

// RequestID sets a random X-Request-ID unless the caller provided one.
func RequestID() Middleware {
	return Funcs{BeforeFunc: func(req *http.Request) (*http.Request, error) {
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return req, nil
	}}
}

type startedAtKey struct{}

// Logging writes one debug line per request. Headers are never logged.
func Logging(log logging.Logger) Middleware {
	return Funcs{
		BeforeFunc: func(req *http.Request) (*http.Request, error) {
			return req.WithContext(context.WithValue(req.Context(), startedAtKey{}, time.Now())), nil
		},
		AfterFunc: func(req *http.Request, resp *Response, err error) {
			args := []any{"method", req.Method, "path", req.URL.Path}
			if id := req.Header.Get(RequestIDHeader); id != "" {
				args = append(args, "request_id", id)
			}
			if started, ok := req.Context().Value(startedAtKey{}).(time.Time); ok {
				args = append(args, "duration", time.Since(started))
			}
			if resp != nil {
				args = append(args, "status", resp.StatusCode)
			}
			ctx := req.Context()
			if err != nil {
				log.Warn(ctx, "http request failed", append(args, "err", err)...)
				return
			}
			log.Debug(ctx, "http request", args...)
		},
	}
}

const tracerName = "github.com/dmitrijs2005/forumsession/internal/client/httpclient"

// Tracing wraps each request in a client span and injects its context into
// the outgoing headers with the global propagator. A nil tracer uses the
// global provider.
func Tracing(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return Funcs{
		BeforeFunc: func(req *http.Request) (*http.Request, error) {
			ctx, _ := tracer.Start(req.Context(), "HTTP "+req.Method,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("url.path", req.URL.Path),
				),
			)
			req = req.WithContext(ctx)
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
			return req, nil
		},
		AfterFunc: func(req *http.Request, resp *Response, err error) {
			span := trace.SpanFromContext(req.Context())
			if resp != nil {
				span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		},
	}
}
