package persist

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/l1jgo/worldnav/internal/record"
)

const snapshotVersion = 1

// SnapshotHeader is the first line of a snapshot, readable without decoding
// the record body.
type SnapshotHeader struct {
	Version int       `json:"version"`
	Name    string    `json:"name"`
	Tick    uint64    `json:"tick"`
	Tasks   int       `json:"tasks"`
	SavedAt time.Time `json:"saved_at"`
}

// WriteSnapshot writes e as a zstd-compressed header line followed by the
// JSON record. The file is replaced atomically.
func WriteSnapshot(path string, e Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := writeSnapshotFile(tmp, e); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeSnapshotFile(path string, e Entry) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()
	bw := bufio.NewWriterSize(enc, 64*1024)

	savedAt := e.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	hb, err := json.Marshal(SnapshotHeader{
		Version: snapshotVersion,
		Name:    e.Name,
		Tick:    e.Tick,
		Tasks:   e.Tasks,
		SavedAt: savedAt,
	})
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(e.Record); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (Entry, error) {
	var e Entry
	f, err := os.Open(path)
	if err != nil {
		return e, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return e, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return e, fmt.Errorf("read header: %w", err)
	}
	var h SnapshotHeader
	if err := json.Unmarshal(line, &h); err != nil {
		return e, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != snapshotVersion {
		return e, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}

	rec := record.New()
	if err := json.NewDecoder(br).Decode(rec); err != nil {
		return e, fmt.Errorf("json decode: %w", err)
	}
	return Entry{Name: h.Name, Tick: h.Tick, Tasks: h.Tasks, SavedAt: h.SavedAt, Record: rec}, nil
}

// SnapshotStore keeps the latest save in a single snapshot file; saving
// under a new name replaces the old record.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

func (s *SnapshotStore) Path() string { return s.path }

func (s *SnapshotStore) Save(_ context.Context, e Entry) error {
	return WriteSnapshot(s.path, e)
}

func (s *SnapshotStore) Load(_ context.Context, name string) (Entry, error) {
	e, err := ReadSnapshot(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{Name: name}, ErrNotFound
	}
	if err != nil {
		return Entry{Name: name}, err
	}
	if e.Name != name {
		return Entry{Name: name}, ErrNotFound
	}
	return e, nil
}

// History holds at most the one save in the file.
func (s *SnapshotStore) History(ctx context.Context, name string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	e, err := s.Load(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Record = nil
	return []Entry{e}, nil
}

func (s *SnapshotStore) Close() error { return nil }
