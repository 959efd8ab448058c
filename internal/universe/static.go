package universe

import (
	"context"
	"errors"

	"github.com/samber/lo"
)

// Static serves a fixed symbol list from configuration.
type Static struct {
	symbols []string
}

// NewStatic constructs a static source. Duplicates are dropped, order kept.
func NewStatic(symbols []string) *Static {
	return &Static{symbols: lo.Uniq(symbols)}
}

// Symbols returns the configured list.
func (s *Static) Symbols(ctx context.Context) ([]string, error) {
	if len(s.symbols) == 0 {
		return nil, errors.New("universe.symbols is empty")
	}
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out, nil
}

var _ Source = (*Static)(nil)
