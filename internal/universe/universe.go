package universe

import "context"

// Source resolves the list of symbols a run will evaluate. Identifiers are
// opaque strings, stable across runs so they can serve as dedup keys.
type Source interface {
	Symbols(ctx context.Context) ([]string, error)
}
