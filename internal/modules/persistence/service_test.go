package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"parkservices/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errQuota  = fmt.Errorf("quota exceeded: %w", domain.ErrStorageFull)
	errLocked = errors.New("database is locked")
)

// memStore is an in-memory KeyValueStore. Values longer than maxValue are refused.
type memStore struct {
	data     map[string]string
	maxValue int
	failAll  bool
	// transient fails the next n writes with errLocked
	transient int
	sets      int
	removed   []string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (s *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.sets++
	if s.transient > 0 {
		s.transient--
		return errLocked
	}
	if s.failAll || (s.maxValue > 0 && len(value) > s.maxValue) {
		return errQuota
	}
	s.data[key] = value
	return nil
}

func (s *memStore) Remove(ctx context.Context, key string) error {
	delete(s.data, key)
	s.removed = append(s.removed, key)
	return nil
}

type recorderStub struct {
	saves  []string
	resets []string
}

func (r *recorderStub) ObserveSave(key, outcome string) { r.saves = append(r.saves, key+":"+outcome) }
func (r *recorderStub) ObserveLoadReset(key string)     { r.resets = append(r.resets, key) }

func intPtr(v int) *int { return &v }

var baseTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func repairFixture(n, photoSize int) []domain.RepairOrder {
	out := make([]domain.RepairOrder, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.RepairOrder{
			ID:          fmt.Sprintf("%d", 1000-i),
			Type:        "空调",
			Location:    fmt.Sprintf("50%d", i),
			Description: strings.Repeat("噪音很大", 40),
			Photo:       "data:image/jpeg;base64," + strings.Repeat("A", photoSize),
			Status:      domain.OrderPending,
			Timestamp:   baseTime.Add(-time.Duration(i) * time.Minute),
			Submitter:   "张科研",
			Comment:     strings.Repeat("好", 80),
		})
	}
	return out
}

func workFixture(n, descRunes int) []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.WorkOrder{
			ID:          fmt.Sprintf("%d", 2000-i),
			Category:    domain.CategoryDining,
			Title:       strings.Repeat("午餐预订", 40),
			Description: strings.Repeat("描", descRunes),
			Status:      domain.OrderPending,
			Submitter:   "张科研",
			SubmitTime:  baseTime,
			Comment:     strings.Repeat("评", 200),
		})
	}
	return out
}

func TestManager_RepairOrders_RoundTrip(t *testing.T) {
	store := newMemStore()
	rec := &recorderStub{}
	m := NewManager(store, 0, rec)

	orders := []domain.RepairOrder{
		{ID: "2", Type: "空调", Location: "501", Description: "noisy", Photo: "imgX", Status: domain.OrderRated,
			Timestamp: baseTime, Submitter: "张科研", Rating: intPtr(4), Comment: "ok", Engineer: "李工", ETA: "30分钟"},
		{ID: "1", Type: "照明", Location: "302", Description: "flicker", Status: domain.OrderPending, Timestamp: baseTime},
	}

	outcome := m.SaveRepairOrders(context.Background(), orders)
	assert.Equal(t, SaveFull, outcome)
	assert.Equal(t, []string{"repairOrders:full"}, rec.saves)

	loaded := m.LoadRepairOrders(context.Background())
	assert.Equal(t, orders, loaded)
}

func TestManager_WorkOrders_RoundTrip(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 0, nil)

	done := baseTime.Add(2 * time.Hour)
	orders := []domain.WorkOrder{
		{ID: "9", Category: domain.CategoryRepair, Title: "空调 - 501", Description: "故障描述：noisy\n报修照片：已上传",
			Location: "501", Status: domain.OrderCompleted, Submitter: "张科研", SubmitTime: baseTime,
			Handler: "王服务", CompleteTime: &done, CompletionPhotos: []string{"imgA", "imgB"}},
		{ID: "8", Category: domain.CategoryVisitor, Title: "访客预约 - 刘", Description: "访客：刘",
			Status: domain.OrderPending, Submitter: "张科研", SubmitTime: baseTime},
	}

	require.Equal(t, SaveFull, m.SaveWorkOrders(context.Background(), orders))
	assert.Equal(t, orders, m.LoadWorkOrders(context.Background()))
}

func TestManager_EmptyCollection_RoundTrip(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 0, nil)

	require.Equal(t, SaveFull, m.SaveWorkOrders(context.Background(), nil))
	assert.Equal(t, "[]", store.data[KeyWorkOrders])
	assert.Equal(t, []domain.WorkOrder{}, m.LoadWorkOrders(context.Background()))
}

func TestManager_SaveRepairOrders_OverBudgetCompacts(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 0, nil)

	orders := repairFixture(30, 200*1024)
	orders[2].Status = domain.OrderCompleted
	orders[3].Status = domain.OrderRejected
	orders[4].Status = domain.OrderRated

	full, err := json.Marshal(orders)
	require.NoError(t, err)
	require.Greater(t, len(full), DefaultBudgetBytes)

	outcome := m.SaveRepairOrders(context.Background(), orders)
	assert.Equal(t, SaveCompacted, outcome)

	stored := store.data[KeyRepairOrders]
	assert.Less(t, len(stored), len(full))

	var decoded []domain.RepairOrder
	require.NoError(t, json.Unmarshal([]byte(stored), &decoded))
	require.Len(t, decoded, 20)

	assert.NotEmpty(t, decoded[0].Photo)
	assert.NotEmpty(t, decoded[10].Photo)
	assert.Empty(t, decoded[2].Photo)
	assert.Empty(t, decoded[3].Photo)
	assert.Empty(t, decoded[4].Photo)
	assert.Empty(t, decoded[11].Photo)
	assert.Empty(t, decoded[19].Photo)
	assert.Equal(t, "1000", decoded[0].ID)

	// caller's slice is untouched
	assert.NotEmpty(t, orders[2].Photo)
	assert.Len(t, orders, 30)
}

func TestManager_SaveWorkOrders_OverBudgetTruncatesText(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 0, nil)

	orders := workFixture(6, 250000)
	full, err := json.Marshal(orders)
	require.NoError(t, err)
	require.Greater(t, len(full), DefaultBudgetBytes)

	assert.Equal(t, SaveCompacted, m.SaveWorkOrders(context.Background(), orders))

	stored := store.data[KeyWorkOrders]
	assert.Less(t, len(stored), len(full))

	var decoded []domain.WorkOrder
	require.NoError(t, json.Unmarshal([]byte(stored), &decoded))
	require.Len(t, decoded, 6)
	for _, o := range decoded {
		assert.Equal(t, 300, utf8.RuneCountInString(o.Description))
		assert.Equal(t, 150, utf8.RuneCountInString(o.Comment))
		assert.Equal(t, 160, utf8.RuneCountInString(o.Title))
	}
}

func TestManager_SaveRepairOrders_WriteFailureFallsBackToMinimal(t *testing.T) {
	store := newMemStore()
	store.maxValue = 20 * 1024
	rec := &recorderStub{}
	m := NewManager(store, 0, rec)

	orders := repairFixture(15, 4*1024)
	orders[0].Rating = intPtr(5)

	assert.Equal(t, SaveMinimal, m.SaveRepairOrders(context.Background(), orders))
	assert.Equal(t, []string{"repairOrders:minimal"}, rec.saves)

	decoded := m.LoadRepairOrders(context.Background())
	require.Len(t, decoded, 10)
	for _, o := range decoded {
		assert.Empty(t, o.Photo)
		assert.LessOrEqual(t, utf8.RuneCountInString(o.Description), 100)
		assert.LessOrEqual(t, utf8.RuneCountInString(o.Comment), 50)
	}
	assert.Equal(t, 5, *decoded[0].Rating)
}

func TestManager_SaveWorkOrders_WriteFailureFallsBackToMinimal(t *testing.T) {
	store := newMemStore()
	store.maxValue = 30 * 1024
	m := NewManager(store, 0, nil)

	orders := workFixture(12, 1200)
	orders[0].CompletionPhotos = []string{"imgA"}

	assert.Equal(t, SaveMinimal, m.SaveWorkOrders(context.Background(), orders))

	decoded := m.LoadWorkOrders(context.Background())
	require.Len(t, decoded, 12)
	for _, o := range decoded {
		assert.Equal(t, 100, utf8.RuneCountInString(o.Title))
		assert.Equal(t, 200, utf8.RuneCountInString(o.Description))
		assert.Equal(t, 100, utf8.RuneCountInString(o.Comment))
		assert.Nil(t, o.CompletionPhotos)
	}
}

func TestManager_SaveDropsKeyWhenEveryStageFails(t *testing.T) {
	store := newMemStore()
	store.data[KeyRepairOrders] = `[{"id":"old"}]`
	store.failAll = true
	rec := &recorderStub{}
	m := NewManager(store, 0, rec)

	assert.Equal(t, SaveDropped, m.SaveRepairOrders(context.Background(), repairFixture(3, 10)))
	_, ok := store.data[KeyRepairOrders]
	assert.False(t, ok)
	assert.Equal(t, []string{"repairOrders:dropped"}, rec.saves)
}

func TestManager_SaveRetriesTransientErrors(t *testing.T) {
	store := newMemStore()
	store.transient = writeAttempts - 1
	rec := &recorderStub{}
	m := NewManager(store, 0, rec)

	assert.Equal(t, SaveFull, m.SaveRepairOrders(context.Background(), repairFixture(2, 10)))
	assert.Equal(t, writeAttempts, store.sets)
	assert.Len(t, m.LoadRepairOrders(context.Background()), 2)
	assert.Equal(t, []string{"repairOrders:full"}, rec.saves)
}

func TestManager_SaveKeepsPreviousValueOnPersistentError(t *testing.T) {
	store := newMemStore()
	store.data[KeyRepairOrders] = `[{"id":"old"}]`
	store.transient = 100
	rec := &recorderStub{}
	m := NewManager(store, 0, rec)

	assert.Equal(t, SaveFailed, m.SaveRepairOrders(context.Background(), repairFixture(3, 10)))
	assert.Equal(t, `[{"id":"old"}]`, store.data[KeyRepairOrders])
	assert.Empty(t, store.removed)
	assert.Equal(t, []string{"repairOrders:failed"}, rec.saves)
}

func TestManager_LoadCorruptedResetsToEmpty(t *testing.T) {
	cases := map[string]string{
		"malformed":  `[{"id":`,
		"object":     `{"id":"1"}`,
		"null":       `null`,
		"number":     `42`,
		"wrong type": `[{"id":1}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			store.data[KeyRepairOrders] = raw
			store.data[KeyWorkOrders] = raw
			rec := &recorderStub{}
			m := NewManager(store, 0, rec)

			assert.Equal(t, []domain.RepairOrder{}, m.LoadRepairOrders(context.Background()))
			assert.Equal(t, []domain.WorkOrder{}, m.LoadWorkOrders(context.Background()))
			assert.Empty(t, store.data)
			assert.ElementsMatch(t, []string{KeyRepairOrders, KeyWorkOrders}, rec.resets)
		})
	}
}

func TestManager_LoadMissingKeys(t *testing.T) {
	m := NewManager(newMemStore(), 0, nil)
	assert.Empty(t, m.LoadRepairOrders(context.Background()))
	assert.Empty(t, m.LoadWorkOrders(context.Background()))
	assert.Nil(t, m.LoadCurrentUser(context.Background()))
}

func TestManager_CurrentUser(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 0, nil)
	ctx := context.Background()

	u := &domain.User{ID: "u1", Name: "李主管", Role: domain.RoleAdmin, Department: "资产部", Phone: "13800000002"}
	require.NoError(t, m.SaveCurrentUser(ctx, u))
	assert.Equal(t, u, m.LoadCurrentUser(ctx))

	require.NoError(t, m.ClearCurrentUser(ctx))
	assert.Nil(t, m.LoadCurrentUser(ctx))

	store.data[KeyCurrentUser] = "{broken"
	assert.Nil(t, m.LoadCurrentUser(ctx))
	_, ok := store.data[KeyCurrentUser]
	assert.False(t, ok)
}
