package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/cespare/xxhash/v2"
)

type (
	// FileStore keeps records in a json file that survives restarts.
	//
	// Every operation reloads the file before touching it and every
	// mutation flushes it before returning. Nothing coordinates two
	// processes sharing the same file, the last flush wins.
	FileStore struct {
		path  string
		clock Clock

		mu      sync.Mutex
		records map[string]Record
	}

	fileFormat struct {
		Version  int             `json:"version"`
		Checksum string          `json:"checksum"`
		Records  json.RawMessage `json:"records"`
	}
)

const (
	fileFormatVersion = 1
)

// OpenFileStore returns a store backed by path. A missing or corrupted
// file results in an empty store.
func OpenFileStore(ctx context.Context, path string, clock Clock) *FileStore {
	f := &FileStore{
		path:    path,
		clock:   clock,
		records: make(map[string]Record),
	}
	f.mu.Lock()
	f.reload(ctx)
	f.mu.Unlock()
	return f
}

// Path of the backing file
func (f *FileStore) Path() string {
	return f.path
}

// Load replaces the in-memory records with the content of the backing file.
// It is safe to call Load as many times as needed. On error the store is
// left empty and a StorageUnavailable is returned.
func (f *FileStore) Load(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

// Flush writes all records to the backing file
func (f *FileStore) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushLocked()
}

func (f *FileStore) Create(ctx context.Context, userID string) (string, error) {
	rec, err := newRecord(userID, f.clock)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reload(ctx)
	for {
		if _, exists := f.records[rec.ID]; !exists {
			break
		}
		rec.ID = NewID()
	}
	f.records[rec.ID] = rec
	if err := f.flushLocked(); err != nil {
		delete(f.records, rec.ID)
		return "", err
	}
	return rec.ID, nil
}

func (f *FileStore) Find(ctx context.Context, sessionID string) (Record, bool, error) {
	if sessionID == "" {
		return Record{}, false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reload(ctx)
	rec, ok := f.records[sessionID]
	return rec, ok, nil
}

func (f *FileStore) Destroy(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reload(ctx)
	rec, ok := f.records[sessionID]
	if !ok {
		return false, nil
	}
	delete(f.records, sessionID)
	if err := f.flushLocked(); err != nil {
		f.records[sessionID] = rec
		return false, err
	}
	return true, nil
}

func (f *FileStore) Records(ctx context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reload(ctx)
	return f.sortedLocked(), nil
}

func (f *FileStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reload(ctx)
	var removed []Record
	for id, rec := range f.records {
		if rec.CreatedAt.Before(cutoff) {
			removed = append(removed, rec)
			delete(f.records, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := f.flushLocked(); err != nil {
		for _, rec := range removed {
			f.records[rec.ID] = rec
		}
		return 0, err
	}
	return len(removed), nil
}

func (f *FileStore) reload(ctx context.Context) {
	err := f.loadLocked()
	if err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Err(err).Str("path", f.path).Msg("Session file ignored, starting from an empty store")
	}
}

func (f *FileStore) loadLocked() error {
	f.records = make(map[string]Record)
	buf, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return StorageUnavailable{Path: f.path, cause: err}
	}
	var content fileFormat
	err = json.Unmarshal(buf, &content)
	if err != nil {
		return StorageUnavailable{Path: f.path, cause: err}
	}
	if content.Version != fileFormatVersion {
		return StorageUnavailable{Path: f.path, cause: fmt.Errorf("unsupported version %v", content.Version)}
	}
	var compact bytes.Buffer
	err = json.Compact(&compact, content.Records)
	if err != nil {
		return StorageUnavailable{Path: f.path, cause: err}
	}
	if sum := checksum(compact.Bytes()); sum != content.Checksum {
		return StorageUnavailable{Path: f.path, cause: fmt.Errorf("checksum mismatch, got %v expecting %v", sum, content.Checksum)}
	}
	var records []Record
	err = json.Unmarshal(compact.Bytes(), &records)
	if err != nil {
		return StorageUnavailable{Path: f.path, cause: err}
	}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *FileStore) flushLocked() error {
	records, err := json.Marshal(f.sortedLocked())
	if err != nil {
		return fmt.Errorf("session: unable to encode records, cause %w", err)
	}
	buf, err := json.MarshalIndent(fileFormat{
		Version:  fileFormatVersion,
		Checksum: checksum(records),
		Records:  records,
	}, "", "\t")
	if err != nil {
		return fmt.Errorf("session: unable to encode records, cause %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("session: unable to create %v, cause %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("session: unable to flush %v, cause %w", f.path, err)
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(buf)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("session: unable to flush %v, cause %w", f.path, err)
	}
	err = os.Rename(tmp.Name(), f.path)
	if err != nil {
		return fmt.Errorf("session: unable to flush %v, cause %w", f.path, err)
	}
	return nil
}

func (f *FileStore) sortedLocked() []Record {
	out := make([]Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func checksum(buf []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(buf))
}
