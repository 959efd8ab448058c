package state

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore keeps the alert record in a local JSON file. Saves write to a
// temporary file in the same directory and rename over the target, so a
// failed write never leaves the state unreadable. A fingerprint taken at
// load time detects concurrent writers; on conflict the file is re-read and
// merged before the replace.
type FileStore struct {
	path        string
	logger      zerolog.Logger
	fingerprint [sha256.Size]byte
	loaded      bool
}

// NewFileStore constructs a file-backed store at path.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "state_file").Str("path", path).Logger(),
	}
}

// Load reads the record from disk. A missing file is an empty record;
// malformed content is logged and also yields an empty record rather than
// aborting the run.
func (s *FileStore) Load(ctx context.Context) (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Msg("failed to read state file; starting from empty record")
		}
		s.fingerprint = [sha256.Size]byte{}
		s.loaded = true
		return NewRecord(), nil
	}

	record, err := Decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("state file is malformed; starting from empty record")
		record = NewRecord()
	}

	s.fingerprint = sha256.Sum256(data)
	s.loaded = true
	return record, nil
}

// Save atomically replaces the state file with the record. If the file
// changed since Load, the on-disk record is merged in first so a concurrent
// run's dates are not lost.
func (s *FileStore) Save(ctx context.Context, record *Record) error {
	if s.loaded {
		s.mergeConcurrent(record)
	}

	data, err := record.Encode()
	if err != nil {
		return fmt.Errorf("encode alert state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}

	s.fingerprint = sha256.Sum256(data)
	return nil
}

func (s *FileStore) mergeConcurrent(record *Record) {
	current, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	if sha256.Sum256(current) == s.fingerprint {
		return
	}

	onDisk, err := Decode(current)
	if err != nil {
		s.logger.Warn().Err(err).Msg("concurrent state write is malformed; overwriting")
		return
	}

	s.logger.Warn().Msg("state file changed since load; merging concurrent updates")
	record.Merge(onDisk)
}

var _ Store = (*FileStore)(nil)
