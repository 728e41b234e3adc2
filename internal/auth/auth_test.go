package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func roundTrip(t *testing.T, s *Sessions, op Operator) *http.Request {
	t.Helper()
	rr := httptest.NewRecorder()
	s.CreateSession(rr, op)
	req := httptest.NewRequest(http.MethodGet, "/tables", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	s := NewSessions("secret", nil)
	req := roundTrip(t, s, Operator{ID: 7, Name: "Operador Caixa"})
	op, ok := s.ParseSession(req)
	if !ok {
		t.Fatalf("expected valid session")
	}
	if op.ID != 7 || op.Name != "Operador Caixa" {
		t.Fatalf("unexpected operator %+v", op)
	}
}

func TestSessionRejectsOtherSecret(t *testing.T) {
	req := roundTrip(t, NewSessions("secret", nil), Operator{ID: 7, Name: "Ana"})
	if _, ok := NewSessions("other", nil).ParseSession(req); ok {
		t.Fatalf("expected signature check to fail")
	}
}

func TestSessionRejectsTampering(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "1.QW5h.bad"})
	if _, ok := NewSessions("secret", nil).ParseSession(req); ok {
		t.Fatalf("expected tampered cookie to be rejected")
	}
}

func TestRequireAuth(t *testing.T) {
	active := map[uint]bool{1: true}
	s := NewSessions("secret", func(_ context.Context, id uint) bool { return active[id] })
	h := s.Middleware(s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op, _ := OperatorFromContext(r.Context())
		w.Write([]byte(op.Name))
	})))

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"anonymous", httptest.NewRequest(http.MethodGet, "/tables", nil), http.StatusUnauthorized},
		{"active operator", roundTrip(t, s, Operator{ID: 1, Name: "Ana"}), http.StatusOK},
		{"disabled operator", roundTrip(t, s, Operator{ID: 2, Name: "Bia"}), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, tt.req)
		if rr.Code != tt.code {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.code, rr.Code)
		}
	}
}

func TestPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPIN(hash, "1234") || CheckPIN(hash, "0000") {
		t.Fatalf("pin check mismatch")
	}
}
