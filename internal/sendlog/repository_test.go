// internal/sendlog/repository_test.go
//
// Unit-tests for send-log and rate-log access using sqlmock.
//
// Run: go test ./internal/sendlog -v

package sendlog

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "mysql")), mock
}

func TestSentOn(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT recipient_key FROM send_log WHERE recipient_key IN (?, ?) AND send_date = ? AND digest_type = ?`,
	)).
		WithArgs("account:1", "subscription:2", "2025-06-11", TypeDaily).
		WillReturnRows(sqlmock.NewRows([]string{"recipient_key"}).AddRow("account:1"))

	got, err := repo.SentOn(context.Background(),
		[]string{"account:1", "subscription:2"}, "2025-06-11", TypeDaily)
	if err != nil {
		t.Fatalf("SentOn error: %v", err)
	}
	if !got["account:1"] || got["subscription:2"] {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSentOn_NoKeys(t *testing.T) {
	repo, mock := newMockRepo(t)

	got, err := repo.SentOn(context.Background(), nil, "2025-06-11", TypeDaily)
	if err != nil {
		t.Fatalf("SentOn error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("query issued for empty key set: %v", err)
	}
}

func TestInsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO send_log (recipient_key, send_date, digest_type, `trigger`, story_count, neighborhood_count, has_header_ad, has_native_ad, correlation_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
	)).
		WithArgs("account:1", "2025-06-11", TypeDaily, TriggerScheduled,
			5, 2, true, false, "corr-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), &SendRecord{
		RecipientKey:      "account:1",
		SendDate:          "2025-06-11",
		DigestType:        TypeDaily,
		Trigger:           TriggerScheduled,
		StoryCount:        5,
		NeighborhoodCount: 2,
		HasHeaderAd:       true,
		CorrelationID:     "corr-1",
	})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO send_log .*ON DUPLICATE KEY UPDATE").
		WithArgs("account:1", "2025-06-11", TypeDaily, TriggerCityChange,
			3, 1, false, false, "corr-2").
		WillReturnResult(sqlmock.NewResult(1, 2))

	err := repo.Upsert(context.Background(), &SendRecord{
		RecipientKey:      "account:1",
		SendDate:          "2025-06-11",
		DigestType:        TypeDaily,
		Trigger:           TriggerCityChange,
		StoryCount:        3,
		NeighborhoodCount: 1,
		CorrelationID:     "corr-2",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCountSends(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM send_log WHERE recipient_key = ? AND send_date = ?`,
	)).
		WithArgs("account:1", "2025-06-11").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(4))

	n, err := repo.CountSends(context.Background(), "account:1", "2025-06-11")
	if err != nil {
		t.Fatalf("CountSends error: %v", err)
	}
	if n != 4 {
		t.Fatalf("count = %d, want 4", n)
	}
}

func TestAppendRateAndCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO rate_log (recipient_key, `trigger`, event_date) VALUES (?, ?, ?)",
	)).
		WithArgs("account:1", TriggerTopicChange, "2025-06-11").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AppendRate(context.Background(), "account:1", TriggerTopicChange, "2025-06-11"); err != nil {
		t.Fatalf("AppendRate error: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM rate_log WHERE recipient_key = ? AND event_date = ?`,
	)).
		WithArgs("account:1", "2025-06-11").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))

	n, err := repo.CountRate(context.Background(), "account:1", "2025-06-11")
	if err != nil {
		t.Fatalf("CountRate error: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
