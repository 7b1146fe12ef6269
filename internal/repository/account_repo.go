package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"parkservices/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrPhoneTaken = errors.New("phone already registered")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type accountModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Phone        string    `gorm:"column:phone"`
	PasswordHash string    `gorm:"column:password_hash"`
	Name         string    `gorm:"column:name"`
	Role         string    `gorm:"column:role"`
	Department   *string   `gorm:"column:department"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "accounts" }

func toDomainAccount(m accountModel) *domain.Account {
	var dept string
	if m.Department != nil {
		dept = *m.Department
	}
	return &domain.Account{
		ID:           m.ID,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Role:         domain.UserRole(m.Role),
		Department:   dept,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toAccountModel(a *domain.Account) accountModel {
	var dept *string
	if a.Department != "" {
		v := a.Department
		dept = &v
	}
	return accountModel{
		ID:           a.ID,
		Phone:        strings.TrimSpace(a.Phone),
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		Role:         string(a.Role),
		Department:   dept,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	m := toAccountModel(a)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPhoneTaken
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrPhoneTaken
		}
		return err
	}
	*a = *toDomainAccount(m)
	return nil
}

// GetByPhone returns gorm.ErrRecordNotFound when no account uses the phone.
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	var m accountModel
	tx := r.db.WithContext(ctx).Where("phone = ?", strings.TrimSpace(phone)).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainAccount(m), nil
}

func (r *AccountRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&accountModel{}).Where("phone = ?", strings.TrimSpace(phone)).Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}
