package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeToken serializes a store-native cursor into an opaque token.
func EncodeToken(cursor any) (string, error) {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to encode continuation token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodeToken reverses EncodeToken into cursor.
func DecodeToken(token string, cursor any) error {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(raw, cursor); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
