package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func tracingStage(name string, trace *[]string) Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		*trace = append(*trace, name+" in")
		resp, err := next(ctx, req)
		*trace = append(*trace, name+" out")
		return resp, err
	})
}

func decodeError(t *testing.T, resp *Response) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	return body
}

// ============================================
// Chain Tests
// ============================================

func TestChain_RunsStagesInOrder(t *testing.T) {
	var trace []string
	h := func(ctx context.Context, req *Request) (*Response, error) {
		trace = append(trace, "handler")
		return NoContent(), nil
	}

	_, err := Chain(h, tracingStage("a", &trace), tracingStage("b", &trace))(context.Background(), &Request{})

	require.NoError(t, err)
	assert.Equal(t, []string{"a in", "b in", "handler", "b out", "a out"}, trace)
}

func TestChain_StageCanShortCircuit(t *testing.T) {
	stop := StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		return JSON(http.StatusTeapot, map[string]string{})
	})
	h := func(ctx context.Context, req *Request) (*Response, error) {
		t.Fatal("handler must not run")
		return nil, nil
	}

	resp, err := Chain(h, stop)(context.Background(), &Request{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestChain_NoStages(t *testing.T) {
	h := func(ctx context.Context, req *Request) (*Response, error) { return NoContent(), nil }

	resp, err := Chain(h)(context.Background(), &Request{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// ============================================
// Error Boundary Tests
// ============================================

func TestErrorBoundary_MapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperror.Code
		wantError  string
	}{
		{
			name:       "validation",
			err:        &validation.Error{Violations: []validation.Violation{{Field: "customerEmail", Message: "must be a valid email"}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeValidation,
			wantError:  "Validation failed",
		},
		{
			name:       "not found",
			err:        apperror.NotFound("Order not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   apperror.CodeNotFound,
			wantError:  "Order not found",
		},
		{
			name:       "aws service",
			err:        errors.Join(errors.New("failed to save order"), &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeExternalService,
			wantError:  "External service error",
		},
		{
			name: "tagged store failure",
			err: fmt.Errorf("failed to save order: %w", apperror.External(
				fmt.Errorf("failed to upsert document abc: %w", errors.New("dial tcp 10.0.3.7:5432: connection refused")))),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeExternalService,
			wantError:  "External service error",
		},
		{
			name:       "aws transport",
			err:        &smithy.OperationError{ServiceID: "DynamoDB", OperationName: "PutItem", Err: errors.New("dial tcp 10.0.3.7:443: i/o timeout")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeExternalService,
			wantError:  "External service error",
		},
		{
			name:       "generic",
			err:        errors.New("something broke"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperror.CodeInternal,
			wantError:  "something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := func(ctx context.Context, req *Request) (*Response, error) { return nil, tt.err }

			resp, err := Chain(h, ErrorBoundary(zap.NewNop()))(context.Background(), &Request{})

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "*", resp.Headers.Get("Access-Control-Allow-Origin"))
			body := decodeError(t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantError, body.Error)
			assert.NotContains(t, string(resp.Body), "10.0.3.7")
		})
	}
}

func TestErrorBoundary_ValidationDetails(t *testing.T) {
	verr := &validation.Error{Violations: []validation.Violation{
		{Field: "customerEmail", Message: "must be a valid email"},
		{Field: "items", Message: "must contain at least 1 item"},
	}}
	h := func(ctx context.Context, req *Request) (*Response, error) { return nil, verr }

	resp, err := Chain(h, ErrorBoundary(zap.NewNop()))(context.Background(), &Request{})
	require.NoError(t, err)

	var body struct {
		Details []validation.Violation `json:"details"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, verr.Violations, body.Details)
}

func TestErrorBoundary_RecoversPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := func(ctx context.Context, req *Request) (*Response, error) { panic("nil map") }

	resp, err := Chain(h, ErrorBoundary(zap.New(core)))(context.Background(), &Request{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, 1, logs.FilterMessage("panic while handling request").Len())
}

func TestErrorBoundary_NilResponse(t *testing.T) {
	h := func(ctx context.Context, req *Request) (*Response, error) { return nil, nil }

	resp, err := Chain(h, ErrorBoundary(zap.NewNop()))(context.Background(), &Request{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

// ============================================
// Logging / CORS / Request ID / Validation Tests
// ============================================

func TestLogging_EntryAndExit(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := func(ctx context.Context, req *Request) (*Response, error) { return NoContent(), nil }
	req := &Request{Method: http.MethodGet, Path: "/orders", Query: url.Values{"limit": {"5"}}, RequestID: "req-1"}

	_, err := Chain(h, Logging(zap.New(core)))(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/orders", entry["path"])
	assert.Equal(t, "limit=5", entry["query"])
	exit := logs.All()[1].ContextMap()
	assert.Equal(t, int64(http.StatusNoContent), exit["status"])
	assert.Contains(t, exit, "duration")
}

func TestLogging_ErrorStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := func(ctx context.Context, req *Request) (*Response, error) {
		return nil, &validation.Error{}
	}

	_, err := Chain(h, Logging(zap.New(core)))(context.Background(), &Request{})

	assert.Error(t, err)
	assert.Equal(t, int64(http.StatusBadRequest), logs.All()[1].ContextMap()["status"])
}

func TestCORS_OverlaysHeaders(t *testing.T) {
	h := func(ctx context.Context, req *Request) (*Response, error) {
		resp, _ := JSON(http.StatusOK, map[string]string{})
		resp.Headers.Set("Access-Control-Allow-Origin", "https://example.com")
		return resp, nil
	}

	resp, err := Chain(h, CORS())(context.Background(), &Request{})

	require.NoError(t, err)
	assert.Equal(t, "*", resp.Headers.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST,PUT,DELETE,OPTIONS", resp.Headers.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "application/json", resp.Headers.Get("Content-Type"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := func(ctx context.Context, req *Request) (*Response, error) {
		seen = req.RequestID
		return NoContent(), nil
	}

	headers := make(http.Header)
	headers.Set(HeaderRequestID, "abc-123")
	resp, err := Chain(h, RequestID())(context.Background(), &Request{Headers: headers})
	require.NoError(t, err)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", resp.Headers.Get(HeaderRequestID))

	resp, err = Chain(h, RequestID())(context.Background(), &Request{Headers: make(http.Header)})
	require.NoError(t, err)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, resp.Headers.Get(HeaderRequestID))
}

type stubSchema struct {
	result any
	err    error
}

func (s stubSchema) Parse(body []byte) (any, error) { return s.result, s.err }

func TestValidation_AttachesParsedBody(t *testing.T) {
	var parsed any
	h := func(ctx context.Context, req *Request) (*Response, error) {
		parsed = req.Parsed
		return NoContent(), nil
	}

	_, err := Chain(h, Validation(stubSchema{result: "normalized"}))(context.Background(), &Request{Body: []byte(`{}`)})

	require.NoError(t, err)
	assert.Equal(t, "normalized", parsed)
}

func TestValidation_RejectsBeforeHandler(t *testing.T) {
	verr := &validation.Error{Violations: []validation.Violation{{Field: "body", Message: "request body is required"}}}
	h := func(ctx context.Context, req *Request) (*Response, error) {
		t.Fatal("handler must not run")
		return nil, nil
	}

	_, err := Chain(h, Validation(stubSchema{err: verr}))(context.Background(), &Request{})

	assert.Same(t, verr, err)
}
