package ledger

import (
	"context"
	"strings"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryStore keeps the chain in process memory. Useful for tests and for
// ephemeral single-run audits.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Seq != uint64(len(s.entries))+1 {
		return ErrAppendConflict
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// GormStore persists the chain to SQLite. Only Create and ordered Find are
// issued, keeping the table append-only by construction.
type GormStore struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Append(ctx context.Context, e Entry) error {
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		// a second writer raced us to this sequence number
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrAppendConflict
		}
		return err
	}
	return nil
}

func (s *GormStore) List(ctx context.Context) ([]Entry, error) {
	var out []Entry
	if err := s.db.WithContext(ctx).Order("seq asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
