package repositories

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"edumarket/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AccountsKey holds the account registry.
	AccountsKey = "edumarket_users"
	// SessionKey holds the current-session pointer.
	SessionKey = "edumarket_current_user"

	accountsVersion = 1
	sessionVersion  = 1
)

// KVAccountRepository is a KVStore implementation of AccountRepository.
type KVAccountRepository struct {
	accounts registry[[]models.Account]
}

// NewKVAccountRepository creates a new instance of KVAccountRepository.
func NewKVAccountRepository(kv KVStore) *KVAccountRepository {
	return &KVAccountRepository{
		accounts: registry[[]models.Account]{
			kv:      kv,
			key:     AccountsKey,
			version: accountsVersion,
			migrations: map[int]migration{
				0: migrateLegacyAccounts,
			},
		},
	}
}

// GetAll returns every account in registration order.
func (r *KVAccountRepository) GetAll() ([]models.Account, error) {
	accounts, err := r.accounts.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return accounts, nil
}

// GetByEmail returns the account with exactly this email.
func (r *KVAccountRepository) GetByEmail(email string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.Email == email }, "email", email)
}

// GetByID returns the account with this ID.
func (r *KVAccountRepository) GetByID(id string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.ID == id }, "ID", id)
}

// Create appends a new account, generating its ID when empty.
func (r *KVAccountRepository) Create(account *models.Account) error {
	accounts, err := r.accounts.load()
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	accounts = append(accounts, *account)
	if err := r.accounts.save(accounts); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *KVAccountRepository) find(match func(models.Account) bool, field, value string) (*models.Account, error) {
	accounts, err := r.accounts.load()
	if err != nil {
		return nil, fmt.Errorf("failed to get account by %s %s: %w", field, value, err)
	}
	for i := range accounts {
		if match(accounts[i]) {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account with %s %s: %w", field, value, ErrNotFound)
}

// legacyAccount is the unversioned record shape, with a base64 "password".
type legacyAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// migrateLegacyAccounts replaces base64-encoded passwords with bcrypt hashes.
// Accounts whose password cannot be decoded keep an empty hash and cannot sign in.
func migrateLegacyAccounts(data json.RawMessage) (json.RawMessage, error) {
	var legacy []legacyAccount
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	accounts := make([]models.Account, 0, len(legacy))
	for _, l := range legacy {
		account := models.Account{ID: l.ID, Name: l.Name, Email: l.Email, CreatedAt: l.CreatedAt}
		if password, ok := decodeLegacyPassword(l.Password); ok {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password for %s: %w", l.Email, err)
			}
			account.PasswordHash = string(hash)
		}
		accounts = append(accounts, account)
	}
	return json.Marshal(accounts)
}

// decodeLegacyPassword reverses the old encoding, which base64'd Latin-1 bytes.
func decodeLegacyPassword(encoded string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	var b strings.Builder
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String(), true
}

// KVSessionRepository is a KVStore implementation of SessionRepository.
type KVSessionRepository struct {
	session registry[*models.Session]
}

// NewKVSessionRepository creates a new instance of KVSessionRepository.
func NewKVSessionRepository(kv KVStore) *KVSessionRepository {
	return &KVSessionRepository{
		session: registry[*models.Session]{
			kv:      kv,
			key:     SessionKey,
			version: sessionVersion,
			migrations: map[int]migration{
				// The legacy pointer already has the current shape.
				0: func(data json.RawMessage) (json.RawMessage, error) { return data, nil },
			},
		},
	}
}

// Get returns the current session, or nil when nobody is signed in.
func (r *KVSessionRepository) Get() (*models.Session, error) {
	session, err := r.session.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session != nil && session.ID == "" {
		return nil, nil
	}
	return session, nil
}

// Set replaces the current session.
func (r *KVSessionRepository) Set(session models.Session) error {
	if err := r.session.save(&session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the current session.
func (r *KVSessionRepository) Clear() error {
	if err := r.session.clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
