package auth

import (
	"context"
	"errors"
	"strings"

	"parkservices/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type directoryEntry struct {
	name       string
	role       domain.UserRole
	department string
}

var demoDirectory = map[string]directoryEntry{
	"13800000001": {name: "张科研", role: domain.RoleResearcher, department: "实验组团I"},
	"13800000002": {name: "李主管", role: domain.RoleAdmin, department: "资产部"},
}

var directoryDefault = directoryEntry{name: "王服务", role: domain.RoleService, department: "物业部"}

// MockDirectory accepts any non-empty phone/password pair and derives the
// profile from the phone number. Unknown numbers are service staff.
type MockDirectory struct{}

func (MockDirectory) Verify(ctx context.Context, phone, password string) (*domain.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	entry, ok := demoDirectory[phone]
	if !ok {
		entry = directoryDefault
	}
	return &domain.User{
		ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte("park-directory:"+phone)).String(),
		Name:       entry.name,
		Role:       entry.role,
		Department: entry.department,
		Phone:      phone,
	}, nil
}

// AccountVerifier checks registered accounts. An unknown phone is ErrUnknownAccount.
type AccountVerifier struct {
	accounts AccountRepository
}

func NewAccountVerifier(accounts AccountRepository) *AccountVerifier {
	return &AccountVerifier{accounts: accounts}
}

func (v *AccountVerifier) Verify(ctx context.Context, phone, password string) (*domain.User, error) {
	acc, err := v.accounts.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acc.User(), nil
}

// ChainVerifier asks each verifier in turn and returns the first user accepted.
// Only ErrUnknownAccount moves on to the next verifier.
type ChainVerifier []CredentialVerifier

func (c ChainVerifier) Verify(ctx context.Context, phone, password string) (*domain.User, error) {
	for _, v := range c {
		u, err := v.Verify(ctx, phone, password)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrUnknownAccount) {
			return nil, err
		}
	}
	return nil, ErrInvalidCredentials
}
