// internal/workers/registration/create-affiliate-record/store.go
package createaffiliaterecord

import (
	"context"
	"errors"
	"sync"
	"time"

	"affiliate-registration/internal/models"
)

var (
	ErrStorageFailed = errors.New("STORAGE_WRITE_FAILED")
)

// Store persists registrations. Ids are assigned by the store, start at 1,
// strictly increase and are never reused.
type Store interface {
	Create(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationRecord, error)
	Count(ctx context.Context) (int64, error)
}

// MemoryStore keeps records for the life of the process.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records []models.RegistrationRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		now:    time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, req *models.RegistrationRequest) (*models.RegistrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := models.NewRecord(req, s.nextID, s.now())
	s.nextID++
	s.records = append(s.records, *record)

	return record, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.records)), nil
}
