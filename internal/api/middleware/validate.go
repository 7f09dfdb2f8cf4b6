package middleware

import (
	"context"

	"github.com/example/order-backend/internal/validation"
)

// Validation parses the body with schema and stores the normalized result
// in req.Parsed.
func Validation(schema validation.Schema) Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		parsed, err := schema.Parse(req.Body)
		if err != nil {
			return nil, err
		}
		req.Parsed = parsed
		return next(ctx, req)
	})
}
