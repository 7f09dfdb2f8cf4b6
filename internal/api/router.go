package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/example/order-backend/internal/api/middleware"
	"github.com/example/order-backend/internal/apperror"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// NewRouter serves routes over net/http. A route ending in a parameter is
// also registered with that segment empty, so "/orders/" reaches the
// handler and is rejected there as a missing id.
func NewRouter(routes []Route, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	for _, rt := range routes {
		names := paramNames(rt.Path)
		h := serveRoute(rt, names, log)
		mux.Handle(rt.Method+" "+rt.Path, h)

		if len(names) > 0 && strings.HasSuffix(rt.Path, "{"+names[len(names)-1]+"}") {
			base := strings.TrimSuffix(rt.Path, "{"+names[len(names)-1]+"}")
			mux.Handle(rt.Method+" "+base+"{$}", h)
		}
	}
	return mux
}

func serveRoute(rt Route, names []string, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeResponse(w, log, middleware.ErrorResponse(http.StatusRequestEntityTooLarge, apperror.CodeValidation, "Request body too large", nil))
				return
			}
			writeResponse(w, log, middleware.ErrorResponse(http.StatusBadRequest, apperror.CodeValidation, "Unable to read request body", nil))
			return
		}

		params := make(map[string]string, len(names))
		for _, name := range names {
			params[name] = r.PathValue(name)
		}

		resp, err := rt.Handler(r.Context(), &middleware.Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			PathParams: params,
			Query:      r.URL.Query(),
			Headers:    r.Header,
			Body:       body,
		})
		if err != nil {
			log.Error("unhandled error escaped the chain", zap.Error(err))
			resp = middleware.ErrorResponse(http.StatusInternalServerError, apperror.CodeInternal, "Internal server error", nil)
		}
		writeResponse(w, log, resp)
	})
}

func writeResponse(w http.ResponseWriter, log *zap.Logger, resp *middleware.Response) {
	for k, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			log.Warn("failed to write response body", zap.Error(err))
		}
	}
}

// paramNames lists the {name} segments of a route path in order.
func paramNames(path string) []string {
	var names []string
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(segment, "{"), "}"))
		}
	}
	return names
}

// matchPath matches path against a route pattern and returns its parameters.
// A trailing slash is kept as an empty last segment, so "/orders/" binds an
// empty parameter the same way the ServeMux "{$}" routes do.
func matchPath(pattern, path string) (map[string]string, bool) {
	patternSegments := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	pathSegments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(patternSegments) != len(pathSegments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, segment := range patternSegments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params[strings.TrimSuffix(strings.TrimPrefix(segment, "{"), "}")] = pathSegments[i]
			continue
		}
		if segment != pathSegments[i] {
			return nil, false
		}
	}
	return params, true
}
