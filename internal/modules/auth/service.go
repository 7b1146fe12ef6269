package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"parkservices/internal/domain"
	"parkservices/internal/pkg/validator"
	"parkservices/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Pages a client navigates to after a session change.
const (
	PageHome  = "home"
	PageLogin = "login"
)

const (
	adminDepartment   = "管理部门"
	serviceDepartment = "服务部门"
)

// SessionResult is returned by Login and Register.
type SessionResult struct {
	User     *domain.User
	Token    string
	NextPage string
}

// Service is the session manager: it tracks the current user and persists it.
type Service struct {
	mu       sync.RWMutex
	current  *domain.User
	verifier CredentialVerifier
	accounts AccountRepository
	sessions SessionStore
	tokens   tokenIssuer
}

func NewService(ctx context.Context, verifier CredentialVerifier, accounts AccountRepository, sessions SessionStore, tokens tokenIssuer) *Service {
	return &Service{
		current:  sessions.LoadCurrentUser(ctx),
		verifier: verifier,
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
	}
}

func (s *Service) Login(ctx context.Context, phone, password string) (*SessionResult, error) {
	u, err := s.verifier.Verify(ctx, phone, password)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, u)
}

// Register validates the form, stores the account and logs the new user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*SessionResult, error) {
	if errs := validator.Validate(req); errs != nil {
		if _, ok := errs["role"]; ok && len(errs) == 1 {
			return nil, ErrInvalidRole
		}
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, errs)
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	phone := strings.TrimSpace(req.Phone)
	if len(phone) != 11 {
		return nil, ErrInvalidPhone
	}

	exists, err := s.accounts.ExistsByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPhoneAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := domain.UserRole(req.Role)
	acc := &domain.Account{
		ID:           uuid.NewString(),
		Phone:        phone,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Department:   departmentFor(role, req.Department),
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrPhoneTaken) {
			return nil, ErrPhoneAlreadyExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	log.Printf("auth_registered user_id=%s role=%s", acc.ID, acc.Role)
	return s.startSession(ctx, acc.User())
}

// Logout clears the current user and its persisted copy.
func (s *Service) Logout(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.sessions.ClearCurrentUser(ctx); err != nil {
		return "", err
	}
	return PageLogin, nil
}

// Current returns a copy of the current user, or nil.
func (s *Service) Current(ctx context.Context) *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

func (s *Service) startSession(ctx context.Context, u *domain.User) (*SessionResult, error) {
	token, err := s.tokens.GenerateToken(u.ID, u.Name, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	if err := s.sessions.SaveCurrentUser(ctx, u); err != nil {
		log.Printf("auth_session_persist_failed user_id=%s error=%q", u.ID, err)
	}

	log.Printf("auth_login user_id=%s role=%s", u.ID, u.Role)
	out := *u
	return &SessionResult{User: &out, Token: token, NextPage: PageHome}, nil
}

func departmentFor(role domain.UserRole, given string) string {
	switch role {
	case domain.RoleAdmin:
		return adminDepartment
	case domain.RoleService:
		return serviceDepartment
	default:
		return strings.TrimSpace(given)
	}
}
