package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/dbtime"
)

type BlockBookingService struct {
	DB    *gorm.DB
	Plans *planService.PaymentPlanService
	Now   func() time.Time
}

func NewBlockBookingService(db *gorm.DB, plans *planService.PaymentPlanService) *BlockBookingService {
	return &BlockBookingService{DB: db, Plans: plans, Now: time.Now}
}

func (s *BlockBookingService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

/* =========================================================
   Create
========================================================= */

type CreateInput struct {
	PackageID       *uuid.UUID
	SessionID       *uuid.UUID
	TotalSessions   int // tanpa package
	PricePerSession int // tanpa package / tanpa session
	TotalPaid       *int
	ParentName      string
	Email           string
	Phone           string
	ChildName       string
}

// Create prices the bundle (package quote when a package is given) and stores it active.
func (s *BlockBookingService) Create(ctx context.Context, in CreateInput) (*blockModel.BlockBookingModel, error) {
	var out *blockModel.BlockBookingModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		price := in.PricePerSession
		if in.SessionID != nil {
			var sess sessionModel.SessionModel
			if err := tx.Take(&sess, "session_id = ?", *in.SessionID).Error; err != nil {
				return helper.MapDBError(err, "session not found")
			}
			if price == 0 {
				price = sess.SessionPrice
			}
		}

		total := in.TotalSessions
		paid := total * price
		var pkgID *uuid.UUID
		var expires *time.Time

		if in.PackageID != nil {
			pkg, err := s.Plans.ActivePackage(ctx, tx, *in.PackageID)
			if err != nil {
				return err
			}
			q, err := pkg.Quote(price)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			total = q.SessionCount
			price = q.EffectivePerSession
			paid = q.Total
			pkgID = &pkg.BlockPackageID
			if pkg.BlockPackageValidityDays > 0 {
				e := s.now().AddDate(0, 0, pkg.BlockPackageValidityDays)
				expires = &e
			}
		}
		if in.TotalPaid != nil {
			paid = *in.TotalPaid
		}
		if total <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "total sessions must be positive")
		}
		if price < 0 || paid < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amounts must not be negative")
		}

		m := &blockModel.BlockBookingModel{
			BlockBookingPackageID:         pkgID,
			BlockBookingSessionID:         in.SessionID,
			BlockBookingParentName:        strings.TrimSpace(in.ParentName),
			BlockBookingEmail:             in.Email,
			BlockBookingPhone:             strings.TrimSpace(in.Phone),
			BlockBookingChildName:         strings.TrimSpace(in.ChildName),
			BlockBookingTotalSessions:     total,
			BlockBookingRemainingSessions: total,
			BlockBookingPricePerSession:   price,
			BlockBookingTotalPaid:         paid,
			BlockBookingStatus:            blockModel.BlockActive,
			BlockBookingExpiresAt:         expires,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		log.Printf("[BlockBooking] ERROR Create email=%s err=%v", in.Email, err)
		return nil, err
	}
	log.Printf("[BlockBooking] CREATED ref=%s sessions=%d price=%d", out.BlockBookingReference, out.BlockBookingTotalSessions, out.BlockBookingPricePerSession)
	return out, nil
}

/* =========================================================
   Deduct
========================================================= */

type DeductInput struct {
	SessionDate     string
	TimetableSlotID *string
	CoachID         *string
	DeductedBy      string
}

type DeductResult struct {
	RemainingSessions int                               `json:"remainingSessions"`
	NewStatus         blockModel.BlockStatus            `json:"newStatus"`
	Usage             blockModel.BlockBookingUsageModel `json:"usage"`
}

// DeductBlockSession records one attended session. The usage insert and the conditional
// decrement run in one transaction; the unique (block, date, slot) index rejects repeats.
func (s *BlockBookingService) DeductBlockSession(ctx context.Context, id uuid.UUID, in DeductInput) (*DeductResult, error) {
	day, err := dbtime.ParseDate(in.SessionDate)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	slot := ""
	if in.TimetableSlotID != nil {
		slot = strings.TrimSpace(*in.TimetableSlotID)
	}

	var res DeductResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b blockModel.BlockBookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&b, "block_booking_id = ?", id).Error; err != nil {
			return helper.MapDBError(err, "block booking not found")
		}
		if b.BlockBookingStatus != blockModel.BlockActive {
			return fiber.NewError(fiber.StatusConflict, "Block booking is "+string(b.BlockBookingStatus)+", not active")
		}
		if b.BlockBookingRemainingSessions <= 0 {
			return fiber.NewError(fiber.StatusConflict, "No sessions remaining on this block booking")
		}

		usage := blockModel.BlockBookingUsageModel{
			BlockBookingUsageBlockBookingID: b.BlockBookingID,
			BlockBookingUsageSessionDate:    day.Format(dbtime.DateLayout),
			BlockBookingUsageSlotID:         slot,
			BlockBookingUsageCoachID:        in.CoachID,
			BlockBookingUsageDeductedBy:     nonEmpty(in.DeductedBy),
			BlockBookingUsageDeductedAt:     s.now(),
		}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&usage)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Session already deducted for "+usage.BlockBookingUsageSessionDate)
		}

		remaining := b.BlockBookingRemainingSessions - 1
		// expiry is left to ExpireDue
		status := DeriveBlockStatus(b.BlockBookingStatus, remaining, TransitionDeduct, nil, s.now())

		dec := tx.Model(&blockModel.BlockBookingModel{}).
			Where("block_booking_id = ? AND block_booking_remaining_sessions > 0 AND block_booking_status = ?", b.BlockBookingID, blockModel.BlockActive).
			Updates(map[string]any{
				"block_booking_remaining_sessions": gorm.Expr("block_booking_remaining_sessions - 1"),
				"block_booking_status":             status,
				"block_booking_updated_at":         s.now(),
			})
		if dec.Error != nil {
			return dec.Error
		}
		if dec.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Block booking changed, please retry")
		}

		res = DeductResult{RemainingSessions: remaining, NewStatus: status, Usage: usage}
		return nil
	})
	if err != nil {
		log.Printf("[BlockBooking] DEDUCT FAILED id=%s date=%s slot=%q err=%v", id, in.SessionDate, slot, err)
		return nil, err
	}
	log.Printf("[BlockBooking] DEDUCT id=%s date=%s remaining=%d status=%s", id, res.Usage.BlockBookingUsageSessionDate, res.RemainingSessions, res.NewStatus)
	return &res, nil
}

/* =========================================================
   Refund
========================================================= */

type RefundInput struct {
	SessionsToRefund *int
	RefundAmount     *int
	Reason           string
}

type RefundResult struct {
	SessionsRefunded  int                    `json:"sessionsRefunded"`
	AmountRefunded    int                    `json:"amountRefunded"`
	NewStatus         blockModel.BlockStatus `json:"newStatus"`
	RemainingSessions int                    `json:"remainingSessions"`
}

// RefundBlockSessions moves unused sessions back out of the bundle. Refunding every
// remaining session marks it refunded; a partial refund keeps the current status.
func (s *BlockBookingService) RefundBlockSessions(ctx context.Context, id uuid.UUID, in RefundInput) (*RefundResult, error) {
	var res RefundResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b blockModel.BlockBookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&b, "block_booking_id = ?", id).Error; err != nil {
			return helper.MapDBError(err, "block booking not found")
		}
		switch b.BlockBookingStatus {
		case blockModel.BlockRefunded:
			return fiber.NewError(fiber.StatusConflict, "Block booking has already been refunded")
		case blockModel.BlockCancelled:
			return fiber.NewError(fiber.StatusConflict, "Block booking is cancelled")
		}

		remaining := b.BlockBookingRemainingSessions
		n := remaining
		if in.SessionsToRefund != nil {
			n = *in.SessionsToRefund
		}
		if remaining <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No remaining sessions to refund")
		}
		if n < 1 || n > remaining {
			return fiber.NewError(fiber.StatusBadRequest, "sessionsToRefund must be between 1 and the remaining sessions")
		}

		price := b.BlockBookingPricePerSession
		amount := n * price
		if in.RefundAmount != nil {
			amount = *in.RefundAmount
		}
		if amount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "refundAmount must not be negative")
		}
		if ceiling := remaining * price; amount > ceiling {
			return fiber.NewError(fiber.StatusBadRequest, "Refund amount exceeds the value of remaining sessions ("+helper.FormatGBP(ceiling)+")")
		}

		left := remaining - n
		status := DeriveBlockStatus(b.BlockBookingStatus, left, TransitionRefund, b.BlockBookingExpiresAt, s.now())

		upd := map[string]any{
			"block_booking_remaining_sessions": gorm.Expr("block_booking_remaining_sessions - ?", n),
			"block_booking_refunded_amount":    gorm.Expr("block_booking_refunded_amount + ?", amount),
			"block_booking_status":             status,
			"block_booking_refunded_at":        s.now(),
			"block_booking_updated_at":         s.now(),
		}
		if r := strings.TrimSpace(in.Reason); r != "" {
			upd["block_booking_refund_reason"] = r
		}
		dec := tx.Model(&blockModel.BlockBookingModel{}).
			Where("block_booking_id = ? AND block_booking_remaining_sessions >= ? AND block_booking_status = ?", b.BlockBookingID, n, b.BlockBookingStatus).
			Updates(upd)
		if dec.Error != nil {
			return dec.Error
		}
		if dec.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Block booking changed, please retry")
		}

		res = RefundResult{SessionsRefunded: n, AmountRefunded: amount, NewStatus: status, RemainingSessions: left}
		return nil
	})
	if err != nil {
		log.Printf("[BlockBooking] REFUND FAILED id=%s err=%v", id, err)
		return nil, err
	}
	log.Printf("[BlockBooking] REFUND id=%s sessions=%d amount=%d status=%s", id, res.SessionsRefunded, res.AmountRefunded, res.NewStatus)
	return &res, nil
}

/* =========================================================
   Expiry + reads
========================================================= */

// ExpireDue flips active bundles past expires_at to expired.
func (s *BlockBookingService) ExpireDue(ctx context.Context) (int64, error) {
	now := s.now()
	res := s.DB.WithContext(ctx).Model(&blockModel.BlockBookingModel{}).
		Where("block_booking_status = ? AND block_booking_expires_at IS NOT NULL AND block_booking_expires_at < ?", blockModel.BlockActive, now).
		Updates(map[string]any{
			"block_booking_status":     blockModel.BlockExpired,
			"block_booking_updated_at": now,
		})
	if res.Error != nil {
		log.Printf("[BlockBooking] ERROR ExpireDue err=%v", res.Error)
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[BlockBooking] EXPIRED %d block bookings", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func (s *BlockBookingService) Get(ctx context.Context, id uuid.UUID) (*blockModel.BlockBookingModel, error) {
	var b blockModel.BlockBookingModel
	if err := s.DB.WithContext(ctx).
		Preload("Usages", func(db *gorm.DB) *gorm.DB {
			return db.Order("block_booking_usage_deducted_at ASC")
		}).
		Take(&b, "block_booking_id = ?", id).Error; err != nil {
		return nil, helper.MapDBError(err, "block booking not found")
	}
	return &b, nil
}

type ListFilter struct {
	Status string
	Email  string
}

func (s *BlockBookingService) List(ctx context.Context, f ListFilter, p helper.Paging) ([]blockModel.BlockBookingModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&blockModel.BlockBookingModel{})
	if st := strings.TrimSpace(f.Status); st != "" {
		q = q.Where("block_booking_status = ?", st)
	}
	if em := strings.ToLower(strings.TrimSpace(f.Email)); em != "" {
		q = q.Where("block_booking_email = ?", em)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []blockModel.BlockBookingModel
	err := q.Order("block_booking_created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
