package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"parkservices/internal/domain"
	"parkservices/internal/pkg/jwt"
	"parkservices/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Mock Account Repository implementing the interface
type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAccountRepo) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

type sessionStoreStub struct {
	user    *domain.User
	cleared bool
}

func (s *sessionStoreStub) SaveCurrentUser(ctx context.Context, u *domain.User) error {
	c := *u
	s.user = &c
	return nil
}

func (s *sessionStoreStub) LoadCurrentUser(ctx context.Context) *domain.User { return s.user }

func (s *sessionStoreStub) ClearCurrentUser(ctx context.Context) error {
	s.user = nil
	s.cleared = true
	return nil
}

func newTestService(t *testing.T, accounts *mockAccountRepo, verifier CredentialVerifier) (*Service, *sessionStoreStub, *jwt.Service) {
	t.Helper()
	store := &sessionStoreStub{}
	tokens := jwt.New("auth-test-secret", time.Hour)
	return NewService(context.Background(), verifier, accounts, store, tokens), store, tokens
}

func TestMockDirectory_RoleOutcomes(t *testing.T) {
	tests := []struct {
		phone      string
		name       string
		role       domain.UserRole
		department string
	}{
		{"13800000001", "张科研", domain.RoleResearcher, "实验组团I"},
		{"13800000002", "李主管", domain.RoleAdmin, "资产部"},
		{"13800000003", "王服务", domain.RoleService, "物业部"},
		{"13912345678", "王服务", domain.RoleService, "物业部"},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			u, err := MockDirectory{}.Verify(context.Background(), tt.phone, "any")
			require.NoError(t, err)
			assert.Equal(t, tt.name, u.Name)
			assert.Equal(t, tt.role, u.Role)
			assert.Equal(t, tt.department, u.Department)
			assert.Equal(t, tt.phone, u.Phone)
			assert.NotEmpty(t, u.ID)
		})
	}
}

func TestMockDirectory_RejectsEmptyCredentials(t *testing.T) {
	_, err := MockDirectory{}.Verify(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = MockDirectory{}.Verify(context.Background(), "13800000001", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SetsCurrentUserAndToken(t *testing.T) {
	svc, store, tokens := newTestService(t, new(mockAccountRepo), MockDirectory{})

	res, err := svc.Login(context.Background(), "13800000002", "secret")
	require.NoError(t, err)
	assert.Equal(t, PageHome, res.NextPage)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)

	claims, err := tokens.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "李主管", claims.Name)
	assert.Equal(t, "admin", claims.Role)

	require.NotNil(t, store.user)
	assert.Equal(t, "李主管", store.user.Name)
	assert.Equal(t, "李主管", svc.Current(context.Background()).Name)
}

func TestLogout_ClearsSession(t *testing.T) {
	svc, store, _ := newTestService(t, new(mockAccountRepo), MockDirectory{})
	_, err := svc.Login(context.Background(), "13800000001", "pw")
	require.NoError(t, err)

	next, err := svc.Logout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageLogin, next)
	assert.Nil(t, svc.Current(context.Background()))
	assert.True(t, store.cleared)
}

func TestNewService_RestoresPersistedUser(t *testing.T) {
	store := &sessionStoreStub{user: &domain.User{ID: "u1", Name: "张科研", Role: domain.RoleResearcher}}
	svc := NewService(context.Background(), MockDirectory{}, new(mockAccountRepo), store, jwt.New("s", time.Hour))
	require.NotNil(t, svc.Current(context.Background()))
	assert.Equal(t, "张科研", svc.Current(context.Background()).Name)
}

func TestChainVerifier_RegisteredAccountFirst(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := new(mockAccountRepo)
	repo.On("GetByPhone", mock.Anything, "13800000001").Return(&domain.Account{
		ID: "acc-1", Phone: "13800000001", PasswordHash: string(hash),
		Name: "赵研究", Role: domain.RoleResearcher, Department: "实验组团II",
	}, nil)
	repo.On("GetByPhone", mock.Anything, "13800000002").Return(nil, gorm.ErrRecordNotFound)

	chain := ChainVerifier{NewAccountVerifier(repo), MockDirectory{}}

	u, err := chain.Verify(context.Background(), "13800000001", "right")
	require.NoError(t, err)
	assert.Equal(t, "赵研究", u.Name)

	// a registered phone never falls through to the directory
	_, err = chain.Verify(context.Background(), "13800000001", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err = chain.Verify(context.Background(), "13800000002", "whatever")
	require.NoError(t, err)
	assert.Equal(t, "李主管", u.Name)

	repo.AssertExpectations(t)
}

func TestChainVerifier_StopsOnStorageError(t *testing.T) {
	repo := new(mockAccountRepo)
	repo.On("GetByPhone", mock.Anything, "13800000001").Return(nil, errors.New("db down"))

	_, err := ChainVerifier{NewAccountVerifier(repo), MockDirectory{}}.Verify(context.Background(), "13800000001", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Name:            "赵研究",
		Phone:           "13900000001",
		Password:        "pw123456",
		ConfirmPassword: "pw123456",
		Role:            "researcher",
		Department:      "实验组团II",
	}
}

func TestRegister_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	repo.On("ExistsByPhone", mock.Anything, "13900000001").Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.Phone == "13900000001" && a.Department == "实验组团II" &&
			bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("pw123456")) == nil
	})).Return(nil)

	svc, store, _ := newTestService(t, repo, MockDirectory{})
	res, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, PageHome, res.NextPage)
	assert.Equal(t, "赵研究", res.User.Name)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "赵研究", store.user.Name)
	repo.AssertExpectations(t)
}

func TestRegister_DepartmentByRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"admin", "管理部门"},
		{"service", "服务部门"},
		{"researcher", "实验组团II"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			repo := new(mockAccountRepo)
			repo.On("ExistsByPhone", mock.Anything, mock.Anything).Return(false, nil)
			repo.On("Create", mock.Anything, mock.Anything).Return(nil)

			svc, _, _ := newTestService(t, repo, MockDirectory{})
			req := validRegister()
			req.Role = tt.role
			res, err := svc.Register(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.User.Department)
		})
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		want   error
	}{
		{"missing name", func(r *RegisterRequest) { r.Name = "" }, ErrMissingFields},
		{"missing confirmation", func(r *RegisterRequest) { r.ConfirmPassword = "" }, ErrMissingFields},
		{"mismatch", func(r *RegisterRequest) { r.ConfirmPassword = "other" }, ErrPasswordMismatch},
		{"short phone", func(r *RegisterRequest) { r.Phone = "1380000" }, ErrInvalidPhone},
		{"bad role", func(r *RegisterRequest) { r.Role = "owner" }, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockAccountRepo)
			svc, store, _ := newTestService(t, repo, MockDirectory{})
			req := validRegister()
			tt.mutate(&req)

			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, store.user)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_PhoneTaken(t *testing.T) {
	repo := new(mockAccountRepo)
	repo.On("ExistsByPhone", mock.Anything, "13900000001").Return(true, nil)
	svc, _, _ := newTestService(t, repo, MockDirectory{})

	_, err := svc.Register(context.Background(), validRegister())
	assert.ErrorIs(t, err, ErrPhoneAlreadyExists)

	repo2 := new(mockAccountRepo)
	repo2.On("ExistsByPhone", mock.Anything, "13900000001").Return(false, nil)
	repo2.On("Create", mock.Anything, mock.Anything).Return(repository.ErrPhoneTaken)
	svc2, _, _ := newTestService(t, repo2, MockDirectory{})

	_, err = svc2.Register(context.Background(), validRegister())
	assert.ErrorIs(t, err, ErrPhoneAlreadyExists)
}
