package services_test

import (
	"testing"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestRegisterUser_HashesPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := services.NewAuthService(repo, "test-secret")

	repo.On("GetByUsername", "alice").Return(nil, gorm.ErrRecordNotFound)
	repo.On("GetByEmail", "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

	user := &models.User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret",
	}
	require.NoError(t, svc.RegisterUser(user))

	assert.NotEqual(t, "s3cret", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret")))
	repo.AssertExpectations(t)
}

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	repo := new(mockUserRepo)
	svc := services.NewAuthService(repo, "test-secret")

	repo.On("GetByUsername", "alice").Return(&models.User{Username: "alice"}, nil)

	err := svc.RegisterUser(&models.User{Username: "alice", Email: "new@example.com", Password: "pw"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestLoginUser_IssuesTokenWithRoleClaim(t *testing.T) {
	repo := new(mockUserRepo)
	svc := services.NewAuthService(repo, "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.On("GetByUsername", "mgr").Return(&models.User{
		ID:       "user-1",
		Username: "mgr",
		Password: string(hashed),
		Role:     models.RoleSalesManager,
	}, nil)

	tokenString, err := svc.LoginUser("mgr", "s3cret")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "mgr", claims["username"])
	assert.Equal(t, models.RoleSalesManager, claims["role"])
}

func TestLoginUser_WrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := services.NewAuthService(repo, "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.On("GetByUsername", "alice").Return(&models.User{Username: "alice", Password: string(hashed)}, nil)

	_, err = svc.LoginUser("alice", "wrong")
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginUser_UnknownUsername(t *testing.T) {
	repo := new(mockUserRepo)
	svc := services.NewAuthService(repo, "test-secret")

	repo.On("GetByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.LoginUser("ghost", "pw")
	assert.EqualError(t, err, "invalid credentials")
}

func TestValidateToken_WrongSecret(t *testing.T) {
	repo := new(mockUserRepo)
	svc := services.NewAuthService(repo, "test-secret")

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "user-1"})
	tokenString, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	assert.Error(t, err)
}
