package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"edumarket/internal/models"
	"edumarket/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns the account registry and the current-session pointer.
type AuthService struct {
	accounts   repositories.AccountRepository
	sessions   repositories.SessionRepository
	publisher  EventPublisher
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	mu         sync.Mutex
}

// NewAuthService creates a new AuthService. publisher may be nil.
func NewAuthService(accounts repositories.AccountRepository, sessions repositories.SessionRepository, publisher EventPublisher, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		publisher:  publisher,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
	}
}

// Register creates an account, hashes its password and signs it in.
func (s *AuthService) Register(name, email, password string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.accounts.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}
	for _, a := range accounts {
		if a.Email == email {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	session := models.SessionFor(*account)
	if err := s.sessions.Set(session); err != nil {
		return nil, fmt.Errorf("account created but sign-in failed: %w", err)
	}

	publishEvent(s.publisher, EventAccountRegistered, map[string]any{
		"accountID": account.ID,
		"email":     account.Email,
	})
	return &session, nil
}

// SignIn makes the account with this email and password the current session.
// On failure the current session is left unchanged.
func (s *AuthService) SignIn(email, password string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session := models.SessionFor(*account)
	if err := s.sessions.Set(session); err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return &session, nil
}

// SignOut clears the current session. Signing out twice is not an error.
func (s *AuthService) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Clear(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// CurrentSession returns the signed-in user, or nil. Unreadable state reads as nil.
func (s *AuthService) CurrentSession() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get()
	if err != nil {
		log.Printf("Reading session failed, treating as signed out: %v", err)
		return nil
	}
	return session
}

// IssueToken signs a bearer token for the given session.
func (s *AuthService) IssueToken(session models.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": session.ID,
		"name":    session.Name,
		"email":   session.Email,
		"exp":     time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":     time.Now().Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Authenticate validates a token and checks that its user is still the current session.
func (s *AuthService) Authenticate(tokenString string) (*models.Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, _ := claims["user_id"].(string)

	session := s.CurrentSession()
	if session == nil || session.ID != userID {
		return nil, ErrSessionEnded
	}
	return session, nil
}
