package state

import "context"

// Store persists the alert record between runs. Load fails soft: a missing
// or unreadable backing store yields an empty record so a run can proceed;
// Save must either replace the full record durably or leave the previous
// state intact.
type Store interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
}
