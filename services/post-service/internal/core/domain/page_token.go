package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// EncodePageToken : base64url("<RFC3339Nano>|<id>").
func EncodePageToken(c PageCursor) string {
	if c.IsZero() {
		return ""
	}
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodePageToken(token string) (PageCursor, error) {
	if token == "" {
		return PageCursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return PageCursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return PageCursor{}, ErrInvalidPageToken
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return PageCursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	return PageCursor{CreatedAt: t, ID: id}, nil
}
