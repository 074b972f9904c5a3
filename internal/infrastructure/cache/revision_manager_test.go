package cache

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCurrentServesCachedRevision(t *testing.T) {
	m := NewRevisionManager(nil, "", time.Minute)
	m.SetRevision("100:100:")

	revision, err := m.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if revision != "100:100:" {
		t.Errorf("revision = %q, want 100:100:", revision)
	}
}

func TestCurrentRefreshesAfterTTL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT txid_current_snapshot").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}).AddRow("101:101:"))

	m := NewRevisionManager(db, "", time.Nanosecond)
	m.SetRevision("100:100:")
	time.Sleep(time.Millisecond)

	revision, err := m.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if revision != "101:101:" {
		t.Errorf("revision = %q, want refreshed 101:101:", revision)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCurrentWithinTTLSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	m := NewRevisionManager(db, "", time.Hour)
	m.SetRevision("100:100:")

	revision, err := m.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if revision != "100:100:" {
		t.Errorf("revision = %q, want cached 100:100:", revision)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database queried within TTL: %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := NewRevisionManager(nil, "", time.Minute)

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
