package domain

import (
	"fmt"
	"strings"
)

func ParseFilterTag(s string) (FilterTag, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "all":
		return FilterTag{}, nil
	case Kind(s).Valid():
		return FilterTag{Kinds: []Kind{Kind(s)}}, nil
	case strings.HasPrefix(s, "game:") && len(s) > len("game:"):
		return FilterTag{GameID: strings.TrimPrefix(s, "game:")}, nil
	default:
		return FilterTag{}, fmt.Errorf("%w: unknown filter tag %q", ErrValidation, s)
	}
}
