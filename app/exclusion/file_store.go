package exclusion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lysyi3m/quickwatch/app/domain"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the exclusion set as a JSON array of video records.
// The version of a snapshot is the SHA-256 of the file it was read from,
// so edits made by another process are detected on Save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns an empty snapshot when the file does not exist yet.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, version, err := s.read()
	if err != nil {
		return nil, err
	}
	return NewSnapshot(records, version), nil
}

func (s *FileStore) Save(ctx context.Context, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, originals, current, err := s.read()
	if err != nil {
		return err
	}
	if current != snapshot.Version() {
		return fmt.Errorf("exclusion file %s: %w", s.path, domain.ErrConflict)
	}

	data, err := encodeRecords(snapshot.Records(), originals)
	if err != nil {
		return fmt.Errorf("failed to encode exclusions: %w", err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write exclusions: %w", err)
	}

	slog.Debug("Exclusions saved", "path", s.path, "count", snapshot.Len())
	return nil
}

// read returns the stored records, their original JSON objects by link and
// the file version.
func (s *FileStore) read() ([]domain.VideoRecord, map[string]json.RawMessage, string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.VideoRecord{}, nil, "", nil
	}
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read exclusions: %w", err)
	}

	records := make([]domain.VideoRecord, 0)
	var originals map[string]json.RawMessage
	if len(data) > 0 {
		if records, originals, err = decodeRecords(data); err != nil {
			return nil, nil, "", &domain.IngestError{Source: s.path, Kind: domain.IngestUnreadable, Err: err}
		}
	}

	sum := sha256.Sum256(data)
	return records, originals, hex.EncodeToString(sum[:]), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
