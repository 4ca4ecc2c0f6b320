package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 30 * 24 * time.Hour
	tokenBytes        = 32
	firstAccountID    = 100000
)

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

// Manager keeps accounts and tokens in process memory.
type Manager struct {
	mu sync.Mutex

	now        func() time.Time
	sessionTTL time.Duration
	lastID     uint64
	tokens     map[string]tokenRecord
	accounts   map[uint64]account
	byUsername map[string]uint64
}

type tokenRecord struct {
	AccountID uint64
	ExpiresAt time.Time
}

type account struct {
	ID           uint64
	Username     string
	PasswordHash []byte
}

func NewManager() *Manager {
	return NewManagerWithTTL(defaultSessionTTL)
}

func NewManagerWithTTL(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Manager{
		now:        time.Now,
		sessionTTL: ttl,
		lastID:     firstAccountID,
		tokens:     make(map[string]tokenRecord),
		accounts:   make(map[uint64]account),
		byUsername: make(map[string]uint64),
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateCredentials(username, password string) error {
	if !usernamePattern.MatchString(strings.TrimSpace(username)) {
		return ErrInvalidUsername
	}
	// bcrypt ignores input past 72 bytes
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

func (m *Manager) Close() error { return nil }

func (m *Manager) Register(username, password string) (uint64, string, error) {
	if err := validateCredentials(username, password); err != nil {
		return 0, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", err
	}
	normalized := normalizeUsername(username)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byUsername[normalized]; taken {
		return 0, "", ErrUsernameTaken
	}
	m.lastID++
	id := m.lastID
	m.accounts[id] = account{ID: id, Username: normalized, PasswordHash: hash}
	m.byUsername[normalized] = id
	return id, m.issueLocked(id), nil
}

func (m *Manager) Login(username, password string) (uint64, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byUsername[normalized]
	if !ok {
		return 0, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(m.accounts[id].PasswordHash, []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}
	return id, m.issueLocked(id), nil
}

// ResolveSession validates a token and slides its expiry forward.
func (m *Manager) ResolveSession(token string) (uint64, string, bool) {
	if token == "" {
		return 0, "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.tokens[token]
	if !ok {
		return 0, "", false
	}
	now := m.now()
	if !now.Before(rec.ExpiresAt) {
		delete(m.tokens, token)
		return 0, "", false
	}
	rec.ExpiresAt = now.Add(m.sessionTTL)
	m.tokens[token] = rec
	return rec.AccountID, m.accounts[rec.AccountID].Username, true
}

func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

func (m *Manager) issueLocked(accountID uint64) string {
	token := mustToken()
	m.tokens[token] = tokenRecord{AccountID: accountID, ExpiresAt: m.now().Add(m.sessionTTL)}
	return token
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
