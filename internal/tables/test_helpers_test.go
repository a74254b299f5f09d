package tables

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func mustTableID(t *testing.T, value string) TableID {
	t.Helper()
	id, err := NewTableID(value)
	if err != nil {
		t.Fatalf("unexpected table id error: %v", err)
	}
	return id
}

// memoryStorage is an in-memory stand-in for the persistent adapter.
type memoryStorage struct {
	values map[string]string
	// failWrites simulates a storage failure: writes become no-ops.
	failWrites bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{values: make(map[string]string)}
}

func (m *memoryStorage) Put(_ context.Context, key string, value any) bool {
	if m.failWrites {
		return false
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return false
	}
	m.values[key] = string(encoded)
	return true
}

func (m *memoryStorage) Get(_ context.Context, key string, out any) bool {
	raw, ok := m.values[key]
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

// staticSource serves a fixed table list.
type staticSource struct {
	tables    []Table
	malformed []string
	fetchErr  error
	pushed    []Table
}

func (s *staticSource) Fetch(context.Context) ([]Table, []string, error) {
	if s.fetchErr != nil {
		return nil, nil, s.fetchErr
	}
	return s.tables, s.malformed, nil
}

func (s *staticSource) Push(_ context.Context, table Table) error {
	s.pushed = append(s.pushed, table)
	return nil
}

// recordingPublisher captures broadcast changes.
type recordingPublisher struct {
	changes []Change
}

func (p *recordingPublisher) Publish(change Change) {
	p.changes = append(p.changes, change)
}

type serviceHarness struct {
	service   *Service
	storage   *memoryStorage
	source    *staticSource
	publisher *recordingPublisher
}

func newServiceHarness(t *testing.T, sourceTables []Table) *serviceHarness {
	t.Helper()
	harness := &serviceHarness{
		storage:   newMemoryStorage(),
		source:    &staticSource{tables: sourceTables},
		publisher: &recordingPublisher{},
	}
	service, err := NewService(ServiceConfig{
		Storage:    harness.storage,
		Source:     harness.source,
		Publisher:  harness.publisher,
		Clock:      func() time.Time { return time.Unix(1755000000, 0) },
		IDProvider: NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	harness.service = service
	return harness
}

func mustLoad(t *testing.T, harness *serviceHarness) LoadResult {
	t.Helper()
	result, err := harness.service.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	return result
}

var errSourceDown = errors.New("source down")
