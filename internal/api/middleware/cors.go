package middleware

import (
	"context"
	"net/http"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Headers":     "Content-Type,Authorization,X-Request-ID",
	"Access-Control-Allow-Methods":     "GET,POST,PUT,DELETE,OPTIONS",
	"Access-Control-Allow-Credentials": "true",
}

// CORS overlays permissive CORS headers on the inner response.
func CORS() Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		resp, err := next(ctx, req)
		if err != nil {
			return nil, err
		}
		return withCORS(resp), nil
	})
}

func withCORS(resp *Response) *Response {
	if resp == nil {
		return nil
	}
	if resp.Headers == nil {
		resp.Headers = make(http.Header)
	}
	for k, v := range corsHeaders {
		resp.Headers.Set(k, v)
	}
	return resp
}
