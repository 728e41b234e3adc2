package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/tablesales/internal/httpx"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey string

const (
	sessionCookieName = "tablesales_session"
	operatorCtxKey    = ctxKey("operator")
	sessionTTL        = 12 * time.Hour
)

// Operator identifies the staff member behind a request.
type Operator struct {
	ID   uint
	Name string
}

// OperatorVerifier is an optional callback to validate that a session's
// operator still exists and is active.
type OperatorVerifier func(ctx context.Context, id uint) bool

// Sessions signs and verifies operator session cookies.
type Sessions struct {
	secret   []byte
	verifier OperatorVerifier
}

// NewSessions builds a cookie signer. verifier may be nil.
func NewSessions(secret string, verifier OperatorVerifier) *Sessions {
	return &Sessions{secret: []byte(secret), verifier: verifier}
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie carrying the operator id and name.
func (s *Sessions) CreateSession(w http.ResponseWriter, op Operator) {
	payload := strconv.FormatUint(uint64(op.ID), 10) + "." + base64.RawURLEncoding.EncodeToString([]byte(op.Name))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + s.sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

// ClearSession deletes the session cookie.
func (s *Sessions) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns its operator.
func (s *Sessions) ParseSession(r *http.Request) (Operator, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return Operator{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return Operator{}, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(s.sign(payload))) {
		return Operator{}, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Operator{}, false
	}
	name, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Operator{}, false
	}
	return Operator{ID: uint(id64), Name: string(name)}, true
}

// WithOperator stores the operator in context.
func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorCtxKey, op)
}

// OperatorFromContext extracts the operator.
func OperatorFromContext(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorCtxKey).(Operator)
	return op, ok
}

// Middleware attaches the operator to the request context if present.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if op, ok := s.ParseSession(r); ok {
			r = r.WithContext(WithOperator(r.Context(), op))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 JSON when no valid operator session is present.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op, ok := OperatorFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if s.verifier != nil && !s.verifier(r.Context(), op.ID) {
			// operator removed or disabled since login
			s.ClearSession(w)
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPIN returns the bcrypt hash stored for an operator PIN.
func HashPIN(pin string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPIN reports whether pin matches hash.
func CheckPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
