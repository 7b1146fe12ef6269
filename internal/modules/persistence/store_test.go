package persistence

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"parkservices/internal/database"
	"parkservices/internal/domain"
	"parkservices/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileManager(t *testing.T, quota int64) *Manager {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "park.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewManager(repository.NewKVRepository(db, quota), 0, nil)
}

func TestManager_ConcurrentWritersOnFileStore(t *testing.T) {
	m := newFileManager(t, 5*1024*1024)
	ctx := context.Background()
	orders := repairFixture(5, 100)
	user := &domain.User{ID: "u1", Name: "张科研", Role: domain.RoleResearcher}

	const rounds = 100
	outcomes := make(map[SaveOutcome]int)
	var userErrs []error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			outcomes[m.SaveRepairOrders(ctx, orders)]++
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := m.SaveCurrentUser(ctx, user); err != nil {
				userErrs = append(userErrs, err)
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, map[SaveOutcome]int{SaveFull: rounds}, outcomes)
	assert.Empty(t, userErrs)
	assert.Len(t, m.LoadRepairOrders(ctx), 5)
	require.NotNil(t, m.LoadCurrentUser(ctx))
	assert.Equal(t, "张科研", m.LoadCurrentUser(ctx).Name)
}

func TestManager_QuotaOnFileStoreDegrades(t *testing.T) {
	m := newFileManager(t, 10000)
	ctx := context.Background()

	// ten orders with 1 KiB photos only fit once photos are stripped
	assert.Equal(t, SaveMinimal, m.SaveRepairOrders(ctx, repairFixture(10, 1024)))
	for _, o := range m.LoadRepairOrders(ctx) {
		assert.Empty(t, o.Photo)
	}
}
