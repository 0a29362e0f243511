// Package cursor encodes pagination offsets as opaque tokens.
//
// The payload is a JSON object serialized with base64url (no padding).
// Tokens are opaque to clients and not stable across schema versions.
package cursor

import (
	"encoding/base64"
	"encoding/json"

	"github.com/carverauto/srql/internal/srqlerrors"
)

type payload struct {
	Offset *int64 `json:"offset"`
}

// Encode builds a cursor for the given offset. Negative offsets clamp to 0.
func Encode(offset int64) string {
	clamped := max(offset, 0)
	data, _ := json.Marshal(payload{Offset: &clamped})
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode extracts the offset from a cursor, clamped to >= 0.
func Decode(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, srqlerrors.NewInvalidRequest("invalid cursor")
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.Offset == nil {
		return 0, srqlerrors.NewInvalidRequest("invalid cursor payload")
	}
	return max(*p.Offset, 0), nil
}
