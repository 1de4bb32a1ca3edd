package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// Session is the authenticated admin. It travels as a signed token and is
// handed to handlers through the request context.
type Session struct {
	Email     string
	CSRFToken string
	ExpiresAt time.Time
}

type sessionClaims struct {
	CSRF string `json:"csrf"`
	jwt.RegisteredClaims
}

// Manager checks the configured credential and issues and verifies sessions.
type Manager struct {
	email        string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewManager hashes password with bcrypt; the plain text is not retained.
// An empty secret gets a random one, which invalidates sessions on restart.
func NewManager(email, password string, secret []byte, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errors.New("admin email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: hash,
		secret:       secret,
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

// Login checks the credential pair and returns a fresh session and its token.
func (m *Manager) Login(email, password string) (Session, string, error) {
	if strings.ToLower(strings.TrimSpace(email)) != m.email {
		return Session{}, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)); err != nil {
		return Session{}, "", ErrInvalidCredentials
	}
	csrf, err := randomToken()
	if err != nil {
		return Session{}, "", err
	}
	session := Session{
		Email:     m.email,
		CSRFToken: csrf,
		ExpiresAt: m.now().Add(m.ttl).Truncate(time.Second),
	}
	token, err := m.Issue(session)
	if err != nil {
		return Session{}, "", err
	}
	return session, token, nil
}

// Issue signs session as an HS256 token.
func (m *Manager) Issue(session Session) (string, error) {
	claims := sessionClaims{
		CSRF: session.CSRFToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Email,
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies token and returns the session it carries.
func (m *Manager) Parse(tokenStr string) (Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidSession
	}
	if claims.Subject != m.email || claims.ExpiresAt == nil {
		return Session{}, ErrInvalidSession
	}
	return Session{
		Email:     claims.Subject,
		CSRFToken: claims.CSRF,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// TTL is how long issued sessions stay valid.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

type contextKey struct{}

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

func FromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(contextKey{}).(Session)
	return session, ok
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
