package state

import (
	"encoding/json"
	"fmt"
	"time"

	"support-band-alerts/internal/band"
)

// SchemaVersion identifies the persisted record layout. Version 1 replaced
// the legacy flat symbol->date map written by earlier deployments; decode
// still accepts the old shape and migrates it on load.
const SchemaVersion = 1

const dateLayout = "2006-01-02"

// Today formats the dedup date key for the given instant in UTC.
func Today(now time.Time) string {
	return now.UTC().Format(dateLayout)
}

// Entry tracks the last notified date per classification for one symbol.
type Entry struct {
	CrossedOn string `json:"crossed_on,omitempty"`
	NearOn    string `json:"near_on,omitempty"`
}

// Record is the persisted per-symbol alert state. It is the sole source of
// dedup truth: a (symbol, classification) pair notifies at most once per
// UTC calendar date.
type Record struct {
	Version int              `json:"version"`
	Symbols map[string]Entry `json:"symbols"`
}

// NewRecord returns an empty record at the current schema version.
func NewRecord() *Record {
	return &Record{Version: SchemaVersion, Symbols: map[string]Entry{}}
}

// ShouldNotify reports whether the (symbol, classification) pair has not yet
// been notified today.
func (r *Record) ShouldNotify(symbol string, class band.Classification, today string) bool {
	entry, ok := r.Symbols[symbol]
	if !ok {
		return true
	}
	switch class {
	case band.Crossed:
		return entry.CrossedOn != today
	case band.Near:
		return entry.NearOn != today
	default:
		return false
	}
}

// MarkNotified records today's date for the (symbol, classification) pair.
// The other classification's date is left untouched.
func (r *Record) MarkNotified(symbol string, class band.Classification, today string) {
	entry := r.Symbols[symbol]
	switch class {
	case band.Crossed:
		entry.CrossedOn = today
	case band.Near:
		entry.NearOn = today
	default:
		return
	}
	if r.Symbols == nil {
		r.Symbols = map[string]Entry{}
	}
	r.Symbols[symbol] = entry
}

// Merge folds another record into this one. For each slot the most recent
// date wins; ISO dates compare correctly as strings.
func (r *Record) Merge(other *Record) {
	if other == nil {
		return
	}
	if r.Symbols == nil {
		r.Symbols = map[string]Entry{}
	}
	for symbol, theirs := range other.Symbols {
		ours := r.Symbols[symbol]
		if theirs.CrossedOn > ours.CrossedOn {
			ours.CrossedOn = theirs.CrossedOn
		}
		if theirs.NearOn > ours.NearOn {
			ours.NearOn = theirs.NearOn
		}
		r.Symbols[symbol] = ours
	}
}

// Encode serialises the record at the current schema version.
func (r *Record) Encode() ([]byte, error) {
	r.Version = SchemaVersion
	if r.Symbols == nil {
		r.Symbols = map[string]Entry{}
	}
	return json.MarshalIndent(r, "", "  ")
}

// Decode parses a persisted record. The legacy flat map of symbol to date
// (one slot, crossed) is migrated into the versioned shape.
func Decode(data []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err == nil && record.Version >= SchemaVersion {
		if record.Symbols == nil {
			record.Symbols = map[string]Entry{}
		}
		return &record, nil
	}

	var legacy map[string]string
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("decode alert state: %w", err)
	}

	migrated := NewRecord()
	for symbol, date := range legacy {
		migrated.Symbols[symbol] = Entry{CrossedOn: date}
	}
	return migrated, nil
}
