package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/CoolAssPuppy/landing-pages/internal/domain"
)

func newLedger(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestCreateSubmission_AssignsIDAndTimestamp(t *testing.T) {
	db := newLedger(t)
	ctx := context.Background()

	s := &domain.Submission{FormName: "demo", Status: domain.StatusAccepted, HubSpot: domain.ForwardOK}
	if err := CreateSubmission(ctx, db, s); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if len(s.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", s.ID)
	}
	if s.CreatedAt.IsZero() || s.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", s.CreatedAt)
	}
}

func TestCreateSubmission_PersistsOutcomeWithoutFieldValues(t *testing.T) {
	db := newLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := []domain.Submission{
		{FormName: "demo", Status: domain.StatusAccepted, HubSpot: domain.ForwardOK, CreatedAt: base},
		{FormName: "demo", Status: domain.StatusDiscarded, Reason: "too_fast", CreatedAt: base.Add(time.Minute)},
	}
	for i := range rows {
		if err := CreateSubmission(ctx, db, &rows[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	var got []domain.Submission
	if err := db.Order("created_at").Find(&got).Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows=%d", len(got))
	}
	if got[0].ID != rows[0].ID || got[0].HubSpot != domain.ForwardOK || !got[0].CreatedAt.Equal(base) {
		t.Fatalf("first row=%+v", got[0])
	}
	if got[1].Status != domain.StatusDiscarded || got[1].Reason != "too_fast" {
		t.Fatalf("second row=%+v", got[1])
	}
}
