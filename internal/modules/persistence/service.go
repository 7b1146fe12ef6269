package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"parkservices/internal/domain"
)

// Storage keys of the three persisted records.
const (
	KeyCurrentUser  = "currentUser"
	KeyRepairOrders = "repairOrders"
	KeyWorkOrders   = "workOrders"
)

// DefaultBudgetBytes is the serialized size above which a collection is compacted before writing.
const DefaultBudgetBytes = 4 * 1024 * 1024

type SaveOutcome string

const (
	SaveFull      SaveOutcome = "full"
	SaveCompacted SaveOutcome = "compacted"
	SaveMinimal   SaveOutcome = "minimal"
	SaveDropped   SaveOutcome = "dropped"
	// SaveFailed leaves the previously stored value in place.
	SaveFailed SaveOutcome = "failed"
)

// Attempts and base backoff for writes failing for reasons other than capacity.
const (
	writeAttempts = 3
	writeBackoff  = 50 * time.Millisecond
)

// Manager mirrors the order collections and the current user into a KeyValueStore.
// Writes never fail from the caller's point of view: they degrade instead.
// All writes go through mu, so the Manager is the single writer of its store.
type Manager struct {
	mu          sync.Mutex
	store       KeyValueStore
	budgetBytes int
	recorder    Recorder
}

func NewManager(store KeyValueStore, budgetBytes int, recorder Recorder) *Manager {
	if budgetBytes <= 0 {
		budgetBytes = DefaultBudgetBytes
	}
	return &Manager{
		store:       store,
		budgetBytes: budgetBytes,
		recorder:    recorder,
	}
}

func (m *Manager) SaveRepairOrders(ctx context.Context, orders []domain.RepairOrder) SaveOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return saveWithLadder(ctx, m, KeyRepairOrders, orders, compactRepairOrders, minimalRepairOrders)
}

func (m *Manager) SaveWorkOrders(ctx context.Context, orders []domain.WorkOrder) SaveOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return saveWithLadder(ctx, m, KeyWorkOrders, orders, compactWorkOrders, minimalWorkOrders)
}

func (m *Manager) LoadRepairOrders(ctx context.Context) []domain.RepairOrder {
	return loadSequence[domain.RepairOrder](ctx, m, KeyRepairOrders)
}

func (m *Manager) LoadWorkOrders(ctx context.Context) []domain.WorkOrder {
	return loadSequence[domain.WorkOrder](ctx, m, KeyWorkOrders)
}

func (m *Manager) SaveCurrentUser(ctx context.Context, u *domain.User) error {
	data, err := encode(u)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(ctx, KeyCurrentUser, string(data))
}

// LoadCurrentUser returns nil when no user is stored or the stored value is unreadable.
func (m *Manager) LoadCurrentUser(ctx context.Context) *domain.User {
	raw, ok, err := m.store.Get(ctx, KeyCurrentUser)
	if err != nil {
		log.Printf("persistence_load_failed key=%s error=%q", KeyCurrentUser, err)
		return nil
	}
	if !ok {
		return nil
	}

	var u *domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u == nil {
		log.Printf("persistence_load_reset key=%s error=%q", KeyCurrentUser, errString(err))
		m.reset(ctx, KeyCurrentUser)
		return nil
	}
	return u
}

func (m *Manager) ClearCurrentUser(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Remove(ctx, KeyCurrentUser)
}

// saveWithLadder writes items under key, degrading in stages:
// full (or compacted when over budget) -> minimal -> key removed.
// Only capacity failures degrade. Any other write error ends with SaveFailed
// and the stored value untouched. Callers hold m.mu.
func saveWithLadder[T any](ctx context.Context, m *Manager, key string, items []T, compact, minimal func([]T) []T) SaveOutcome {
	if items == nil {
		items = []T{}
	}

	outcome := SaveFull
	data, err := encode(items)
	if err == nil && len(data) > m.budgetBytes {
		outcome = SaveCompacted
		before := len(data)
		data, err = encode(compact(items))
		if err == nil {
			log.Printf("persistence_compacted key=%s before=%d after=%d budget=%d", key, before, len(data), m.budgetBytes)
		}
	}
	if err == nil {
		if err = m.set(ctx, key, string(data)); err == nil {
			m.observeSave(key, outcome)
			return outcome
		}
		if !errors.Is(err, domain.ErrStorageFull) {
			return m.failed(key, outcome, err)
		}
	}
	log.Printf("persistence_save_failed key=%s stage=%s error=%q", key, outcome, err)

	data, err = encode(minimal(items))
	if err == nil {
		if err = m.set(ctx, key, string(data)); err == nil {
			m.observeSave(key, SaveMinimal)
			return SaveMinimal
		}
		if !errors.Is(err, domain.ErrStorageFull) {
			return m.failed(key, SaveMinimal, err)
		}
	}
	log.Printf("persistence_save_failed key=%s stage=%s error=%q", key, SaveMinimal, err)

	if err := m.store.Remove(ctx, key); err != nil {
		log.Printf("persistence_remove_failed key=%s error=%q", key, err)
	}
	m.observeSave(key, SaveDropped)
	return SaveDropped
}

// set writes one key, retrying errors that are not capacity failures.
func (m *Manager) set(ctx context.Context, key, value string) error {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if err = m.store.Set(ctx, key, value); err == nil || errors.Is(err, domain.ErrStorageFull) {
			return err
		}
		if attempt == writeAttempts {
			break
		}
		log.Printf("persistence_write_retry key=%s attempt=%d error=%q", key, attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * writeBackoff):
		}
	}
	return err
}

func (m *Manager) failed(key string, stage SaveOutcome, err error) SaveOutcome {
	log.Printf("persistence_save_failed key=%s stage=%s error=%q kept_previous=true", key, stage, err)
	m.observeSave(key, SaveFailed)
	return SaveFailed
}

func loadSequence[T any](ctx context.Context, m *Manager, key string) []T {
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		log.Printf("persistence_load_failed key=%s error=%q", key, err)
		return []T{}
	}
	if !ok {
		return []T{}
	}

	items, err := decodeSequence[T](raw)
	if err != nil {
		log.Printf("persistence_load_reset key=%s error=%q", key, err)
		m.reset(ctx, key)
		return []T{}
	}
	return items
}

func decodeSequence[T any](raw string) ([]T, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotSequence
	}
	items := []T{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *Manager) reset(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Remove(ctx, key); err != nil {
		log.Printf("persistence_remove_failed key=%s error=%q", key, err)
	}
	if m.recorder != nil {
		m.recorder.ObserveLoadReset(key)
	}
}

func (m *Manager) observeSave(key string, outcome SaveOutcome) {
	if m.recorder != nil {
		m.recorder.ObserveSave(key, string(outcome))
	}
}

// encode marshals without HTML escaping so the stored size matches the payload.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func errString(err error) string {
	if err == nil {
		return "null value"
	}
	return err.Error()
}
