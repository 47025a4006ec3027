package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

func fiberCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func TestLoadBookable(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := NewCapacityLedger()
	ctx := context.Background()

	open := testutil.Session(t, db, "Saturday U9", 10, 3, 1500)
	full := testutil.Session(t, db, "Sunday U11", 2, 2, 1500)
	closed := testutil.Session(t, db, "Friday U7", 10, 0, 1500)
	if err := db.Model(&sessionModel.SessionModel{}).Where("session_id = ?", closed.SessionID).
		Update("session_is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	rows, err := ledger.LoadBookable(ctx, db, []uuid.UUID{open.SessionID})
	if err != nil || len(rows) != 1 || rows[0].SessionName != "Saturday U9" {
		t.Fatalf("LoadBookable(open) = %v, %v", rows, err)
	}

	if _, err := ledger.LoadBookable(ctx, db, []uuid.UUID{open.SessionID, full.SessionID}); fiberCode(err) != fiber.StatusConflict {
		t.Fatalf("full session: want 409, got %v", err)
	}
	if _, err := ledger.LoadBookable(ctx, db, []uuid.UUID{closed.SessionID}); fiberCode(err) != fiber.StatusConflict {
		t.Fatalf("inactive session: want 409, got %v", err)
	}
	if _, err := ledger.LoadBookable(ctx, db, []uuid.UUID{uuid.New()}); fiberCode(err) != fiber.StatusNotFound {
		t.Fatalf("missing session: want 404, got %v", err)
	}
	if _, err := ledger.LoadBookable(ctx, db, nil); fiberCode(err) != fiber.StatusBadRequest {
		t.Fatalf("no sessions: want 400, got %v", err)
	}
}

func TestIncrementAndRelease(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := NewCapacityLedger()
	s := testutil.Session(t, db, "Saturday U9", 1, 0, 1500)

	if err := ledger.IncrementEnrollment(db, s.SessionID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	// over capacity is allowed once paid
	if err := ledger.IncrementEnrollment(db, s.SessionID); err != nil {
		t.Fatalf("increment over capacity: %v", err)
	}
	if got := testutil.Enrolled(t, db, s.SessionID); got != 2 {
		t.Fatalf("enrolled = %d, want 2", got)
	}

	for i := 0; i < 3; i++ {
		if err := ledger.ReleaseEnrollment(db, s.SessionID); err != nil {
			t.Fatalf("release: %v", err)
		}
	}
	if got := testutil.Enrolled(t, db, s.SessionID); got != 0 {
		t.Fatalf("enrolled = %d, want 0 (never negative)", got)
	}

	if err := ledger.IncrementEnrollment(db, uuid.New()); fiberCode(err) != fiber.StatusNotFound {
		t.Fatalf("missing session: want 404, got %v", err)
	}
}
