package persist

import (
	"context"
	"errors"
	"time"

	"github.com/l1jgo/worldnav/internal/record"
)

var ErrNotFound = errors.New("persist: record not found")

// Entry is one saved world record. Record is nil in History results.
type Entry struct {
	Name    string
	Tick    uint64
	Tasks   int
	SavedAt time.Time
	Record  *record.Flat
}

// Store saves and loads named world records. Save replaces any previous
// record of the same name and appends a history row.
type Store interface {
	Save(ctx context.Context, e Entry) error
	Load(ctx context.Context, name string) (Entry, error)
	History(ctx context.Context, name string, limit int) ([]Entry, error)
	Close() error
}

var (
	_ Store = (*RecordRepo)(nil)
	_ Store = (*SQLiteRecordRepo)(nil)
	_ Store = (*SnapshotStore)(nil)
	_ Store = MultiStore(nil)
)

// MultiStore saves to every store and loads from the first that has the
// record. Save errors are joined; one failing store does not stop the rest.
type MultiStore []Store

func (m MultiStore) Save(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiStore) Load(ctx context.Context, name string) (Entry, error) {
	for _, s := range m {
		e, err := s.Load(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return e, err
	}
	return Entry{Name: name}, ErrNotFound
}

func (m MultiStore) History(ctx context.Context, name string, limit int) ([]Entry, error) {
	for _, s := range m {
		h, err := s.History(ctx, name, limit)
		if err != nil || len(h) > 0 {
			return h, err
		}
	}
	return nil, nil
}

func (m MultiStore) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
