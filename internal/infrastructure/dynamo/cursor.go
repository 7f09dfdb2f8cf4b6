package dynamo

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/order-backend/internal/repository"
)

// keyValue is the JSON form of a key attribute. Table and index keys are
// always scalar, so only S, N and B occur.
type keyValue struct {
	S *string `json:"S,omitempty"`
	N *string `json:"N,omitempty"`
	B []byte  `json:"B,omitempty"`
}

func encodeKey(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	cursor := make(map[string]keyValue, len(key))
	for name, av := range key {
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			cursor[name] = keyValue{S: &v.Value}
		case *types.AttributeValueMemberN:
			cursor[name] = keyValue{N: &v.Value}
		case *types.AttributeValueMemberB:
			cursor[name] = keyValue{B: v.Value}
		default:
			return "", fmt.Errorf("unsupported key attribute type %T for %s", av, name)
		}
	}
	return repository.EncodeToken(cursor)
}

func decodeKey(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	var cursor map[string]keyValue
	if err := repository.DecodeToken(token, &cursor); err != nil {
		return nil, err
	}
	if len(cursor) == 0 {
		return nil, fmt.Errorf("%w: empty cursor", repository.ErrInvalidToken)
	}

	key := make(map[string]types.AttributeValue, len(cursor))
	for name, v := range cursor {
		switch {
		case v.S != nil:
			key[name] = &types.AttributeValueMemberS{Value: *v.S}
		case v.N != nil:
			key[name] = &types.AttributeValueMemberN{Value: *v.N}
		case v.B != nil:
			key[name] = &types.AttributeValueMemberB{Value: v.B}
		default:
			return nil, fmt.Errorf("%w: attribute %s has no value", repository.ErrInvalidToken, name)
		}
	}
	return key, nil
}
