// Package middleware is the request pipeline of the order API. A request
// passes through an ordered list of stages; each stage receives the rest of
// the chain as next and may act before and after calling it.
package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/example/order-backend/internal/auth"
)

// Request is the transport-neutral view of an inbound call.
type Request struct {
	Method     string
	Path       string
	PathParams map[string]string
	Query      url.Values
	Headers    http.Header
	Body       []byte

	// Set by stages.
	RequestID string
	Parsed    any
	Claims    *auth.Claims
}

// PathParam returns the named path parameter or "".
func (r *Request) PathParam(name string) string {
	return r.PathParams[name]
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Handler is the innermost step of a chain, and the type of next.
type Handler func(ctx context.Context, req *Request) (*Response, error)

type Stage interface {
	Handle(ctx context.Context, req *Request, next Handler) (*Response, error)
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, req *Request, next Handler) (*Response, error)

func (f StageFunc) Handle(ctx context.Context, req *Request, next Handler) (*Response, error) {
	return f(ctx, req, next)
}

// Chain runs stages in order, outermost first, ending at h.
func Chain(h Handler, stages ...Stage) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		return step(stages, h, 0)(ctx, req)
	}
}

func step(stages []Stage, h Handler, i int) Handler {
	if i == len(stages) {
		return h
	}
	return func(ctx context.Context, req *Request) (*Response, error) {
		return stages[i].Handle(ctx, req, step(stages, h, i+1))
	}
}
