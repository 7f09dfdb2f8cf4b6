package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestID honors an inbound X-Request-ID or generates one, and echoes it
// on the response.
func RequestID() Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		if req.RequestID == "" {
			req.RequestID = req.Headers.Get(HeaderRequestID)
		}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}

		resp, err := next(ctx, req)
		if resp != nil {
			if resp.Headers == nil {
				resp.Headers = make(http.Header)
			}
			resp.Headers.Set(HeaderRequestID, req.RequestID)
		}
		return resp, err
	})
}
