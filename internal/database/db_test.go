package database

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		contains []string
	}{
		{
			name:     "driver dsn",
			dsn:      "racer:secret@tcp(db:3306)/racecraft",
			contains: []string{"racer:secret@tcp(db:3306)/racecraft", "parseTime=true", "charset=utf8mb4"},
		},
		{
			name:     "url form",
			dsn:      "mysql://racer:secret@db:3307/racecraft",
			contains: []string{"racer:secret@tcp(db:3307)/racecraft", "parseTime=true"},
		},
		{
			name:     "url without port",
			dsn:      "mysql://racer@db/racecraft",
			contains: []string{"racer@tcp(db:3306)/racecraft"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeMySQLDSN(tt.dsn)
			if err != nil {
				t.Fatalf("normalizeMySQLDSN(%q) error: %v", tt.dsn, err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("normalizeMySQLDSN(%q) = %q, missing %q", tt.dsn, got, want)
				}
			}
		})
	}
}

func TestNormalizeMySQLDSNInvalid(t *testing.T) {
	if _, err := normalizeMySQLDSN("not a dsn"); err == nil {
		t.Fatal("expected error for malformed dsn")
	}
}

func TestNormalizeSQLiteDSN(t *testing.T) {
	got := normalizeSQLiteDSN("file:test.db")
	for _, want := range []string{"?_pragma=foreign_keys(1)", "&_pragma=busy_timeout(5000)", "&_time_format=sqlite"} {
		if !strings.Contains(got, want) {
			t.Errorf("normalizeSQLiteDSN = %q, missing %q", got, want)
		}
	}

	kept := normalizeSQLiteDSN("file:test.db?_pragma=busy_timeout(100)")
	if strings.Contains(kept, "busy_timeout(5000)") {
		t.Errorf("caller busy_timeout overridden: %q", kept)
	}
}

func TestDialectFor(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"", MySQL, false},
		{"mysql", MySQL, false},
		{"sqlite", SQLite, false},
		{"postgres", Dialect{}, true},
	} {
		got, err := DialectFor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("DialectFor(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("DialectFor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
	if MySQL.ForUpdate() != " FOR UPDATE" || SQLite.ForUpdate() != "" {
		t.Error("unexpected ForUpdate suffix")
	}
	if SQLite.InsertIgnore() != "INSERT OR IGNORE" || MySQL.InsertIgnore() != "INSERT IGNORE" {
		t.Error("unexpected InsertIgnore verb")
	}
}

func TestStamp(t *testing.T) {
	loc := time.FixedZone("BST", 3600)
	in := time.Date(2025, 6, 1, 10, 30, 15, 999, loc)
	got := Stamp(in)
	want := time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("Stamp = %v, want %v", got, want)
	}
}
