package services_test

import (
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"edumarket/internal/models"
	"edumarket/internal/repositories"
	"edumarket/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAccountRepository is a mock implementation of repositories.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetAll() ([]models.Account, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(email string) (*models.Account, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByID(id string) (*models.Account, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(account *models.Account) error {
	args := m.Called(account)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(eventType string, payload any) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

const testJWTSecret = "test_jwt_secret"

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func newAuthService(publisher services.EventPublisher) (*services.AuthService, *repositories.MockKVStore) {
	kv := repositories.NewMockKVStore()
	svc := services.NewAuthService(
		repositories.NewKVAccountRepository(kv),
		repositories.NewKVSessionRepository(kv),
		publisher,
		testJWTSecret,
		time.Hour,
	)
	return svc, kv
}

func TestAuthService_Register(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("PublishEvent", services.EventAccountRegistered, mock.Anything).Return(nil).Once()
	authService, kv := newAuthService(publisher)

	session, err := authService.Register("Asha", "asha@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Asha", session.Name)
	assert.Equal(t, "asha@x.com", session.Email)

	current := authService.CurrentSession()
	require.NotNil(t, current)
	assert.Equal(t, *session, *current)

	accounts, err := repositories.NewKVAccountRepository(kv).GetAll()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.NotEqual(t, "secret1", accounts[0].PasswordHash)
	publisher.AssertExpectations(t)

	// Test email already registered
	_, err = authService.Register("Other", "asha@x.com", "another")
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	accounts, _ = repositories.NewKVAccountRepository(kv).GetAll()
	assert.Len(t, accounts, 1)

	// Email matching is exact
	publisher.On("PublishEvent", services.EventAccountRegistered, mock.Anything).Return(nil).Once()
	_, err = authService.Register("Upper", "ASHA@x.com", "another")
	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestAuthService_RegisterPersistenceFailure(t *testing.T) {
	authService, kv := newAuthService(nil)
	kv.FailWrites(fmt.Errorf("quota exceeded"))

	_, err := authService.Register("Asha", "asha@x.com", "secret1")
	assert.ErrorIs(t, err, services.ErrPersistence)
	assert.Nil(t, authService.CurrentSession())
}

func TestAuthService_RegisterCorruptRegistry(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	authService := services.NewAuthService(mockRepo, repositories.NewKVSessionRepository(repositories.NewMockKVStore()), nil, testJWTSecret, time.Hour)

	mockRepo.On("GetAll").Return(nil, fmt.Errorf("failed to load accounts: %w", repositories.ErrCorruptState)).Once()
	_, err := authService.Register("Asha", "asha@x.com", "secret1")
	assert.ErrorIs(t, err, repositories.ErrCorruptState)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_SignIn(t *testing.T) {
	authService, _ := newAuthService(nil)
	registered, err := authService.Register("Asha", "asha@x.com", "secret1")
	require.NoError(t, err)
	_, err = authService.Register("Ravi", "ravi@x.com", "secret2")
	require.NoError(t, err)

	// Test successful login switches the session
	session, err := authService.SignIn("asha@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, session.ID)
	assert.Equal(t, registered.ID, authService.CurrentSession().ID)

	// Test invalid credentials leave the session unchanged
	_, err = authService.SignIn("ravi@x.com", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	assert.Equal(t, registered.ID, authService.CurrentSession().ID)

	_, err = authService.SignIn("nobody@x.com", "secret1")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	assert.Equal(t, registered.ID, authService.CurrentSession().ID)
}

func TestAuthService_SignInStorageError(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	authService := services.NewAuthService(mockRepo, repositories.NewKVSessionRepository(repositories.NewMockKVStore()), nil, testJWTSecret, time.Hour)

	mockRepo.On("GetByEmail", "asha@x.com").Return(nil, fmt.Errorf("failed to load accounts: %w", repositories.ErrCorruptState)).Once()
	_, err := authService.SignIn("asha@x.com", "secret1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_SignOut(t *testing.T) {
	authService, _ := newAuthService(nil)

	// Signing out with nobody signed in is fine
	assert.NoError(t, authService.SignOut())
	assert.Nil(t, authService.CurrentSession())

	_, err := authService.Register("Asha", "asha@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, authService.CurrentSession())

	assert.NoError(t, authService.SignOut())
	assert.Nil(t, authService.CurrentSession())
	assert.NoError(t, authService.SignOut())
	assert.Nil(t, authService.CurrentSession())
}

func TestAuthService_CurrentSessionFailsOpen(t *testing.T) {
	authService, kv := newAuthService(nil)
	require.NoError(t, kv.Set(repositories.SessionKey, "{broken"))

	assert.Nil(t, authService.CurrentSession())
}

func TestAuthService_Tokens(t *testing.T) {
	authService, _ := newAuthService(nil)
	session, err := authService.Register("Asha", "asha@x.com", "secret1")
	require.NoError(t, err)

	token, err := authService.IssueToken(*session)
	require.NoError(t, err)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims["user_id"])
	assert.Equal(t, "asha@x.com", claims["email"])

	authenticated, err := authService.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, authenticated.ID)

	// Test invalid token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// Test expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": session.ID,
		"exp":     jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.Authenticate(expiredTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// A token outlives sign-out but no longer authenticates
	require.NoError(t, authService.SignOut())
	_, err = authService.Authenticate(token)
	assert.ErrorIs(t, err, services.ErrSessionEnded)
}
