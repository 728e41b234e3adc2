package db

import (
	"strings"
	"testing"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  postgres://u:p@h:5432/d  ", "postgres://u:p@h:5432/d"},
		{`"host=h   user=u dbname=d"`, "host=h user=u dbname=d sslmode=disable"},
		{"host=h user=u dbname=d sslmode=require", "host=h user=u dbname=d sslmode=require"},
		{"not a dsn", "not a dsn"},
	}
	for _, tt := range tests {
		if got := NormalizeDSN(tt.in); got != tt.want {
			t.Fatalf("NormalizeDSN(%q): expected %q got %q", tt.in, tt.want, got)
		}
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=ts password=secret dbname=tablesales sslmode=disable")
	want := "postgres://ts:secret@db:5432/tablesales?sslmode=disable"
	if got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
	if got := ToURLDSN("host=db"); got != "host=db" {
		t.Fatalf("expected partial dsn unchanged got %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=h password=secret dbname=d"); strings.Contains(got, "secret") {
		t.Fatalf("password leaked: %s", got)
	}
	if got := MaskDSN("postgres://u:secret@h/d"); strings.Contains(got, "secret") {
		t.Fatalf("password leaked: %s", got)
	}
}
