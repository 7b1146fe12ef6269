package auth

import (
	"context"

	"parkservices/internal/domain"
)

// AccountRepository — only the methods auth uses
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}

// SessionStore keeps the current user (implemented by persistence.Manager)
type SessionStore interface {
	SaveCurrentUser(ctx context.Context, u *domain.User) error
	LoadCurrentUser(ctx context.Context) *domain.User
	ClearCurrentUser(ctx context.Context) error
}

// CredentialVerifier resolves a phone/password pair to a user.
// Implementations return ErrInvalidCredentials when the pair is refused.
type CredentialVerifier interface {
	Verify(ctx context.Context, phone, password string) (*domain.User, error)
}

type tokenIssuer interface {
	GenerateToken(userID, name, role string) (string, error)
}
