package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
)

func TestNewSQLiteClient(t *testing.T) {
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "shipsnap.db"),
	}

	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: config.DriverSQLite}, nil)
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "oracle", DSN: "x"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: shipping_records.id"), want: true},
		{name: "postgres duplicate", err: errors.New(`duplicate key value violates unique constraint "shipping_records_pkey"`), want: true},
		{name: "named constraint", err: errors.New("constraint shipping_records_pkey violated"), constraint: "shipping_records_pkey", want: true},
		{name: "unrelated", err: errors.New("disk I/O error"), want: false},
	}

	for _, tt := range tests {
		if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}
