package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkservices/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrQuotaExceeded is returned when a write would push the store past its capacity.
var ErrQuotaExceeded = fmt.Errorf("storage quota exceeded: %w", domain.ErrStorageFull)

// KVRepository is a capacity-limited key-value store backed by the kv_entries table.
// The quota covers the sum of value sizes across all keys, like browser local storage.
type KVRepository struct {
	db         *gorm.DB
	quotaBytes int64
}

// NewKVRepository creates the store. quotaBytes <= 0 disables the quota.
func NewKVRepository(db *gorm.DB, quotaBytes int64) *KVRepository {
	return &KVRepository{db: db, quotaBytes: quotaBytes}
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var e domain.KVEntry
	tx := r.db.WithContext(ctx).Where("key = ?", key).Limit(1).Find(&e)
	if tx.Error != nil {
		return "", false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return "", false, nil
	}
	return e.Value, true, nil
}

func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.quotaBytes > 0 {
			var used int64
			if err := tx.Model(&domain.KVEntry{}).
				Where("key <> ?", key).
				Select("COALESCE(SUM(OCTET_LENGTH(value)), 0)").
				Scan(&used).Error; err != nil {
				return err
			}
			if used+int64(len(value)) > r.quotaBytes {
				return fmt.Errorf("%w: key=%s size=%d used=%d quota=%d", ErrQuotaExceeded, key, len(value), used, r.quotaBytes)
			}
		}

		e := domain.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&e).Error
		return mapStorageError(err)
	})
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&domain.KVEntry{}).Error
}

// mapStorageError turns postgres size-limit failures into ErrQuotaExceeded.
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 54000 program_limit_exceeded, 53100 disk_full
		if pgErr.Code == "54000" || pgErr.Code == "53100" {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, pgErr.Message)
		}
	}
	return err
}
