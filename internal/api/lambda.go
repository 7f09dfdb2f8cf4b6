package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/order-backend/internal/api/middleware"
	"github.com/example/order-backend/internal/apperror"
	"go.uber.org/zap"
)

// LambdaHandler serves routes behind an API Gateway REST proxy integration.
type LambdaHandler struct {
	routes []Route
	log    *zap.Logger
}

func NewLambdaHandler(routes []Route, log *zap.Logger) *LambdaHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LambdaHandler{routes: routes, log: log}
}

func (h *LambdaHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	route, params, ok := h.match(event.HTTPMethod, event.Path)
	if !ok {
		return toProxyResponse(middleware.ErrorResponse(http.StatusNotFound, apperror.CodeNotFound, "Route not found", nil)), nil
	}
	for name, value := range event.PathParameters {
		params[name] = value
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return toProxyResponse(middleware.ErrorResponse(http.StatusBadRequest, apperror.CodeValidation, "Malformed request body", nil)), nil
		}
		body = decoded
	}

	req := &middleware.Request{
		Method:     event.HTTPMethod,
		Path:       event.Path,
		PathParams: params,
		Query:      queryValues(event),
		Headers:    headerValues(event),
		Body:       body,
	}
	if req.Headers.Get(middleware.HeaderRequestID) == "" {
		req.RequestID = event.RequestContext.RequestID
	}

	resp, err := route.Handler(ctx, req)
	if err != nil {
		h.log.Error("unhandled error escaped the chain", zap.Error(err))
		resp = middleware.ErrorResponse(http.StatusInternalServerError, apperror.CodeInternal, "Internal server error", nil)
	}
	return toProxyResponse(resp), nil
}

func (h *LambdaHandler) match(method, path string) (Route, map[string]string, bool) {
	for _, rt := range h.routes {
		if rt.Method != method {
			continue
		}
		if params, ok := matchPath(rt.Path, path); ok {
			return rt, params, true
		}
	}
	return Route{}, nil, false
}

func queryValues(event events.APIGatewayProxyRequest) url.Values {
	values := make(url.Values)
	for k, vs := range event.MultiValueQueryStringParameters {
		values[k] = append([]string(nil), vs...)
	}
	for k, v := range event.QueryStringParameters {
		if _, ok := values[k]; !ok {
			values.Set(k, v)
		}
	}
	return values
}

func headerValues(event events.APIGatewayProxyRequest) http.Header {
	headers := make(http.Header)
	for k, vs := range event.MultiValueHeaders {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	for k, v := range event.Headers {
		if headers.Get(k) == "" {
			headers.Set(k, v)
		}
	}
	return headers
}

func toProxyResponse(resp *middleware.Response) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(resp.Headers))
	for k := range resp.Headers {
		headers[k] = resp.Headers.Get(k)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       string(resp.Body),
	}
}
