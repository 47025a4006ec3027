package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	sessionService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/service"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	paymentModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/dbtime"
)

type BookingService struct {
	DB       *gorm.DB
	Ledger   sessionService.CapacityLedger
	Coupons  *couponService.CouponService
	Plans    *planService.PaymentPlanService
	Gateway  CheckoutGateway // nil = checkout disabled
	Notifier Notifier        // nil = no emails / events
	Loc      *time.Location
	Now      func() time.Time
}

func NewBookingService(
	db *gorm.DB,
	ledger sessionService.CapacityLedger,
	coupons *couponService.CouponService,
	plans *planService.PaymentPlanService,
	gateway CheckoutGateway,
	notifier Notifier,
	loc *time.Location,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		DB:       db,
		Ledger:   ledger,
		Coupons:  coupons,
		Plans:    plans,
		Gateway:  gateway,
		Notifier: notifier,
		Loc:      loc,
		Now:      time.Now,
	}
}

func (s *BookingService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

/* =========================================================
   CreatePendingBooking
========================================================= */

type CreateBookingInput struct {
	SessionIDs []uuid.UUID

	ChildFirstName    string
	ChildLastName     string
	ChildDateOfBirth  *time.Time
	ChildMedicalNotes *string

	ParentFirstName string
	ParentLastName  string
	Email           string
	Phone           string

	PhotoConsent   bool
	MedicalConsent bool
	TermsAccepted  bool

	CouponCode    string
	PaymentPlanID *uuid.UUID
}

// CreatePendingBooking prices the cart and stores a provisional booking. Nothing is
// reserved: enrollment only moves once payment is confirmed.
func (s *BookingService) CreatePendingBooking(ctx context.Context, in CreateBookingInput) (*bookingModel.BookingModel, error) {
	if !in.TermsAccepted {
		return nil, fiber.NewError(fiber.StatusBadRequest, "terms must be accepted")
	}
	ids := dedupeIDs(in.SessionIDs)

	sessions, err := s.Ledger.LoadBookable(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	subtotal := 0
	idStrings := make([]string, 0, len(sessions))
	for _, ss := range sessions {
		subtotal += ss.SessionPrice
		idStrings = append(idStrings, ss.SessionID.String())
	}

	b := &bookingModel.BookingModel{
		BookingChildFirstName:    strings.TrimSpace(in.ChildFirstName),
		BookingChildLastName:     strings.TrimSpace(in.ChildLastName),
		BookingChildDateOfBirth:  in.ChildDateOfBirth,
		BookingChildMedicalNotes: in.ChildMedicalNotes,
		BookingParentFirstName:   strings.TrimSpace(in.ParentFirstName),
		BookingParentLastName:    strings.TrimSpace(in.ParentLastName),
		BookingEmail:             in.Email,
		BookingPhone:             strings.TrimSpace(in.Phone),
		BookingSessionID:         sessions[0].SessionID,
		BookingSessionIDs:        idStrings,
		BookingAmount:            subtotal,
		BookingPaymentStatus:     bookingModel.PaymentPending,
		BookingPhotoConsent:      in.PhotoConsent,
		BookingMedicalConsent:    in.MedicalConsent,
		BookingTermsAccepted:     in.TermsAccepted,
	}

	// coupon divalidasi ulang di server, jangan percaya angka dari client
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		v := s.Coupons.ValidateCoupon(ctx, code, subtotal, idStrings)
		if !v.Valid {
			return nil, fiber.NewError(fiber.StatusBadRequest, v.Error)
		}
		b.BookingDiscountAmount = v.Discount
		b.BookingAmount = v.FinalTotal
		b.BookingCouponID = &v.Coupon.CouponID
		b.BookingCouponCode = &v.Coupon.CouponCode
	}

	if in.PaymentPlanID != nil {
		plan, err := s.Plans.ActivePlan(ctx, s.DB, *in.PaymentPlanID)
		if err != nil {
			return nil, err
		}
		today := dbtime.CalendarDay(s.now(), s.Loc)
		split := discounts.SplitPaymentPlan(plan.Terms(), b.BookingAmount)
		due := today
		if first, ok := firstRun(sessions, today); ok {
			due = plan.BalanceDueDate(first)
		}
		// balance already due: take everything now
		if split.Balance > 0 && due.After(today) {
			b.BookingPaymentPlanID = &plan.PaymentPlanID
			b.BookingDepositAmount = &split.Deposit
			b.BookingBalanceDue = split.Balance
			b.BookingBalanceDueDate = &due
		}
	}

	if err := s.DB.WithContext(ctx).Create(b).Error; err != nil {
		log.Printf("[BookingService] ERROR CreatePendingBooking email=%s err=%v", b.BookingEmail, err)
		return nil, err
	}
	log.Printf("[BookingService] CREATED ref=%s amount=%d discount=%d sessions=%d", b.BookingReference, b.BookingAmount, b.BookingDiscountAmount, len(sessions))
	return b, nil
}

func firstRun(sessions []sessionModel.SessionModel, from time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for i := range sessions {
		if d, ok := sessions[i].NextRun(from); ok && (!found || d.Before(best)) {
			best, found = d, true
		}
	}
	return best, found
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

/* =========================================================
   Checkout + payment links
========================================================= */

type CheckoutResult struct {
	BookingID   uuid.UUID `json:"bookingId"`
	Reference   string    `json:"reference"`
	PaymentID   uuid.UUID `json:"paymentId"`
	OrderID     string    `json:"orderId"`
	Amount      int       `json:"amount"`
	Token       string    `json:"token,omitempty"`
	CheckoutURL string    `json:"checkoutUrl,omitempty"`
	Confirmed   bool      `json:"confirmed"`
}

// StartCheckout opens a provider checkout for what is due now (the deposit on a plan).
// A zero total is confirmed on the spot.
func (s *BookingService) StartCheckout(ctx context.Context, bookingID uuid.UUID) (*CheckoutResult, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsCancelled() {
		return nil, fiber.NewError(fiber.StatusConflict, "booking is cancelled")
	}
	if b.BookingPaymentStatus != bookingModel.PaymentPending && b.BookingPaymentStatus != bookingModel.PaymentFailed {
		return nil, fiber.NewError(fiber.StatusConflict, "booking is already "+string(b.BookingPaymentStatus))
	}

	due := b.BookingAmount
	if b.BookingDepositAmount != nil && *b.BookingDepositAmount > 0 {
		due = *b.BookingDepositAmount
	}

	if due <= 0 {
		ref := "FREE-" + b.BookingReference
		res, err := s.MarkPaid(ctx, MarkPaidInput{BookingID: b.BookingID, Reference: ref, Method: paymentModel.PaymentMethodGateway})
		if err != nil {
			return nil, err
		}
		s.afterSettle(ctx, res)
		return &CheckoutResult{BookingID: b.BookingID, Reference: b.BookingReference, Confirmed: true}, nil
	}

	orderID := b.BookingReference + "-" + shortSuffix()
	return s.openCheckout(ctx, b, due, orderID, paymentModel.PaymentMethodGateway, b.BookingReference+" booking")
}

type PaymentLinkResult struct {
	PaymentID   uuid.UUID `json:"paymentId"`
	OrderID     string    `json:"orderId"`
	Amount      int       `json:"amount"`
	CheckoutURL string    `json:"checkoutUrl"`
	EmailSent   bool      `json:"emailSent"`
}

// CreatePaymentLink opens a checkout for the outstanding balance (or part of it) and emails
// the link to the parent.
func (s *BookingService) CreatePaymentLink(ctx context.Context, bookingID uuid.UUID, amount *int) (*PaymentLinkResult, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsCancelled() {
		return nil, fiber.NewError(fiber.StatusConflict, "booking is cancelled")
	}
	paid, refunded, err := s.sumPayments(s.DB.WithContext(ctx), b.BookingID)
	if err != nil {
		return nil, err
	}
	outstanding := b.BookingAmount - (paid - refunded)
	if outstanding <= 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "booking has no outstanding balance")
	}
	want := outstanding
	if amount != nil {
		want = *amount
	}
	if want <= 0 || want > outstanding {
		return nil, fiber.NewError(fiber.StatusBadRequest, "amount must be between £0.01 and "+helper.FormatGBP(outstanding))
	}

	orderID := b.BookingReference + "-LINK-" + shortSuffix()
	co, err := s.openCheckout(ctx, b, want, orderID, paymentModel.PaymentMethodPaymentLink, b.BookingReference+" balance")
	if err != nil {
		return nil, err
	}

	out := &PaymentLinkResult{PaymentID: co.PaymentID, OrderID: orderID, Amount: want, CheckoutURL: co.CheckoutURL}
	if s.Notifier != nil {
		out.EmailSent = s.Notifier.SendPaymentLink(ctx, b, co.CheckoutURL, want).OK
	}
	return out, nil
}

// openCheckout writes the pending payment first so the provider callback always finds it.
func (s *BookingService) openCheckout(ctx context.Context, b *bookingModel.BookingModel, amount int, orderID string, method paymentModel.PaymentMethod, item string) (*CheckoutResult, error) {
	if s.Gateway == nil {
		return nil, fiber.NewError(fiber.StatusBadGateway, "payment provider is not configured")
	}

	p := &paymentModel.Payment{
		PaymentBookingID: b.BookingID,
		PaymentAmount:    amount,
		PaymentMethod:    method,
		PaymentStatus:    paymentModel.PaymentStatusPending,
		PaymentReference: orderID,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, helper.MapDBError(err, "booking not found")
	}

	sess, err := s.Gateway.CreateCheckout(ctx, CheckoutRequest{
		OrderID:   orderID,
		Amount:    amount,
		ItemName:  item,
		Email:     b.BookingEmail,
		FirstName: b.BookingParentFirstName,
		LastName:  b.BookingParentLastName,
		Phone:     b.BookingPhone,
		BookingID: b.BookingID,
		PaymentID: p.PaymentID,
	})
	if err != nil {
		log.Printf("[ALERT] checkout create failed booking=%s order=%s err=%v", b.BookingReference, orderID, err)
		_ = s.DB.WithContext(ctx).Model(&paymentModel.Payment{}).
			Where("payment_id = ? AND payment_status = ?", p.PaymentID, paymentModel.PaymentStatusPending).
			Update("payment_status", paymentModel.PaymentStatusFailed).Error
		return nil, fiber.NewError(fiber.StatusBadGateway, "payment provider unavailable, please try again")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&paymentModel.Payment{}).Where("payment_id = ?", p.PaymentID).
			Updates(map[string]any{
				"payment_checkout_url": sess.RedirectURL,
				"payment_external_id":  sess.Token,
			}).Error; err != nil {
			return err
		}
		if method != paymentModel.PaymentMethodGateway {
			return nil
		}
		return tx.Model(&bookingModel.BookingModel{}).Where("booking_id = ?", b.BookingID).
			Updates(map[string]any{
				"booking_checkout_url":      sess.RedirectURL,
				"booking_payment_reference": orderID,
				"booking_updated_at":        s.now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[BookingService] CHECKOUT ref=%s order=%s amount=%d method=%s", b.BookingReference, orderID, amount, method)
	return &CheckoutResult{
		BookingID:   b.BookingID,
		Reference:   b.BookingReference,
		PaymentID:   p.PaymentID,
		OrderID:     orderID,
		Amount:      amount,
		Token:       sess.Token,
		CheckoutURL: sess.RedirectURL,
	}, nil
}

/* =========================================================
   MarkPaid / manual payments (idempotent settlement)
========================================================= */

type MarkPaidInput struct {
	BookingID  uuid.UUID
	Reference  string     // provider payment reference; unique across payments
	Amount     int        // 0 = pending row amount, else the balance due now
	PaymentID  *uuid.UUID // pending row created at checkout, when known
	Method     paymentModel.PaymentMethod
	ExternalID *string
	Note       *string
	RecordedBy *string
}

type MarkPaidResult struct {
	Booking           *bookingModel.BookingModel
	Payment           *paymentModel.Payment
	Duplicate         bool
	EnrollmentApplied bool
	CouponRecorded    bool
}

// MarkPaid settles a provider payment. Repeating it with the same reference (or the same
// pending payment) is a no-op reported as Duplicate.
func (s *BookingService) MarkPaid(ctx context.Context, in MarkPaidInput) (*MarkPaidResult, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Reference == "" && in.PaymentID == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "payment reference is required")
	}
	if in.Method == "" {
		in.Method = paymentModel.PaymentMethodGateway
	}
	return s.settle(ctx, in)
}

type ManualPaymentInput struct {
	Amount     int
	Method     paymentModel.PaymentMethod
	Note       string
	RecordedBy string
}

// RecordManualPayment appends a cash / transfer / terminal payment and re-derives the
// booking status from the whole ledger.
func (s *BookingService) RecordManualPayment(ctx context.Context, bookingID uuid.UUID, in ManualPaymentInput) (*MarkPaidResult, error) {
	if in.Amount <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}
	if !paymentModel.ManualMethods[in.Method] {
		return nil, fiber.NewError(fiber.StatusBadRequest, "method must be cash, bank_transfer or card_terminal")
	}
	res, err := s.settle(ctx, MarkPaidInput{
		BookingID:  bookingID,
		Reference:  bookingModel.NewReference("MAN"),
		Amount:     in.Amount,
		Method:     in.Method,
		Note:       nonEmpty(in.Note),
		RecordedBy: nonEmpty(in.RecordedBy),
	})
	if err != nil {
		return nil, err
	}
	s.afterSettle(ctx, res)
	return res, nil
}

// afterSettle runs the best-effort side effects of a new settlement.
func (s *BookingService) afterSettle(ctx context.Context, res *MarkPaidResult) {
	if s.Notifier == nil || res == nil || res.Duplicate {
		return
	}
	if res.EnrollmentApplied {
		s.Notifier.SendConfirmation(ctx, res.Booking)
		s.Notifier.PublishBookingEvent(ctx, "booking.confirmed", res.Booking)
		return
	}
	s.Notifier.PublishBookingEvent(ctx, "booking.payment_recorded", res.Booking)
}

func (s *BookingService) settle(ctx context.Context, in MarkPaidInput) (*MarkPaidResult, error) {
	res := &MarkPaidResult{}
	now := s.now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, in.BookingID)
		if err != nil {
			return err
		}

		p, applied, err := s.applyPayment(tx, b, in, now)
		if err != nil {
			return err
		}
		res.Payment = p
		if !applied {
			res.Duplicate = true
			res.Booking = b
			return nil
		}

		paid, refunded, err := s.sumPayments(tx, b.BookingID)
		if err != nil {
			return err
		}
		status := DerivePaymentStatus(b.BookingAmount, paid, refunded)

		upd := map[string]any{
			"booking_payment_status": status,
			"booking_updated_at":     now,
		}
		if status == bookingModel.PaymentPaid || status == bookingModel.PaymentPartial {
			if b.IsCancelled() {
				log.Printf("[ALERT] payment received for cancelled booking ref=%s reference=%s", b.BookingReference, in.Reference)
			} else {
				upd["booking_status"] = bookingModel.BookingConfirmed
			}
			if b.BookingPaidAt == nil {
				upd["booking_paid_at"] = now
			}
		}
		if in.Method == paymentModel.PaymentMethodGateway {
			upd["booking_payment_reference"] = p.PaymentReference
		}
		if status == bookingModel.PaymentPaid {
			upd["booking_balance_due"] = 0
		} else if net := paid - refunded; net > 0 && b.BookingAmount-net >= 0 {
			upd["booking_balance_due"] = b.BookingAmount - net
		}
		if err := tx.Model(&bookingModel.BookingModel{}).Where("booking_id = ?", b.BookingID).Updates(upd).Error; err != nil {
			return err
		}

		if (status == bookingModel.PaymentPaid || status == bookingModel.PaymentPartial) && !b.IsCancelled() {
			res.EnrollmentApplied, err = s.applyEnrollment(tx, b, now)
			if err != nil {
				return err
			}
			res.CouponRecorded, err = s.recordCoupon(tx, b)
			if err != nil {
				return err
			}
		}

		res.Booking, err = reloadBooking(tx, b.BookingID)
		return err
	})
	if err != nil {
		log.Printf("[BookingService] ERROR settle booking=%s ref=%s err=%v", in.BookingID, in.Reference, err)
		return nil, err
	}

	if res.Duplicate {
		log.Printf("[BookingService] DUPLICATE settle booking=%s ref=%s", in.BookingID, in.Reference)
	} else {
		log.Printf("[BookingService] SETTLED ref=%s payment=%s status=%s enrolled=%v",
			res.Booking.BookingReference, res.Payment.PaymentReference, res.Booking.BookingPaymentStatus, res.EnrollmentApplied)
	}
	return res, nil
}

// applyPayment moves a matching pending row to paid, or inserts a new paid row. It reports
// false when the payment was already settled.
func (s *BookingService) applyPayment(tx *gorm.DB, b *bookingModel.BookingModel, in MarkPaidInput, now time.Time) (*paymentModel.Payment, bool, error) {
	var existing paymentModel.Payment
	q := tx.Where("payment_booking_id = ?", b.BookingID)
	switch {
	case in.PaymentID != nil && in.Reference != "":
		q = q.Where("payment_id = ? OR payment_reference = ?", *in.PaymentID, in.Reference)
	case in.PaymentID != nil:
		q = q.Where("payment_id = ?", *in.PaymentID)
	default:
		q = q.Where("payment_reference = ?", in.Reference)
	}
	err := q.Order("payment_created_at ASC").Take(&existing).Error

	switch {
	case err == nil:
		if existing.PaymentStatus == paymentModel.PaymentStatusPaid || existing.PaymentMethod == paymentModel.PaymentMethodRefund {
			return &existing, false, nil
		}
		upd := map[string]any{
			"payment_status":     paymentModel.PaymentStatusPaid,
			"payment_paid_at":    now,
			"payment_updated_at": now,
		}
		if in.Amount > 0 {
			upd["payment_amount"] = in.Amount
		}
		if in.ExternalID != nil {
			upd["payment_external_id"] = *in.ExternalID
		}
		// conditional: a concurrent settle of the same row loses here
		res := tx.Model(&paymentModel.Payment{}).
			Where("payment_id = ? AND payment_status IN ?", existing.PaymentID,
				[]paymentModel.PaymentStatus{paymentModel.PaymentStatusPending, paymentModel.PaymentStatusFailed}).
			Updates(upd)
		if res.Error != nil {
			return nil, false, res.Error
		}
		if res.RowsAffected == 0 {
			return &existing, false, nil
		}
		if err := tx.Take(&existing, "payment_id = ?", existing.PaymentID).Error; err != nil {
			return nil, false, err
		}
		return &existing, true, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		if in.Reference == "" {
			return nil, false, fiber.NewError(fiber.StatusNotFound, "payment not found")
		}
		amount := in.Amount
		if amount <= 0 {
			amount = s.amountDueNow(tx, b)
		}
		p := &paymentModel.Payment{
			PaymentBookingID:  b.BookingID,
			PaymentAmount:     amount,
			PaymentMethod:     in.Method,
			PaymentStatus:     paymentModel.PaymentStatusPaid,
			PaymentReference:  in.Reference,
			PaymentExternalID: in.ExternalID,
			PaymentNote:       in.Note,
			PaymentRecordedBy: in.RecordedBy,
			PaymentPaidAt:     &now,
		}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
		if ins.Error != nil {
			return nil, false, ins.Error
		}
		if ins.RowsAffected == 0 {
			// reference already used (possibly on another booking)
			return p, false, nil
		}
		return p, true, nil

	default:
		return nil, false, err
	}
}

func (s *BookingService) amountDueNow(tx *gorm.DB, b *bookingModel.BookingModel) int {
	paid, refunded, err := s.sumPayments(tx, b.BookingID)
	if err != nil {
		return b.BookingAmount
	}
	if paid == 0 && b.BookingDepositAmount != nil && *b.BookingDepositAmount > 0 {
		return *b.BookingDepositAmount
	}
	due := b.BookingAmount - (paid - refunded)
	if due < 0 {
		return 0
	}
	return due
}

// applyEnrollment claims the booking's enrollment marker; only the claimant increments.
func (s *BookingService) applyEnrollment(tx *gorm.DB, b *bookingModel.BookingModel, now time.Time) (bool, error) {
	claim := tx.Model(&bookingModel.BookingModel{}).
		Where("booking_id = ? AND booking_enrollment_applied_at IS NULL", b.BookingID).
		Update("booking_enrollment_applied_at", now)
	if claim.Error != nil {
		return false, claim.Error
	}
	if claim.RowsAffected == 0 {
		return false, nil
	}
	for _, sid := range b.SessionUUIDs() {
		if err := s.Ledger.IncrementEnrollment(tx, sid); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *BookingService) recordCoupon(tx *gorm.DB, b *bookingModel.BookingModel) (bool, error) {
	if b.BookingCouponID == nil || s.Coupons == nil {
		return false, nil
	}
	code := ""
	if b.BookingCouponCode != nil {
		code = *b.BookingCouponCode
	}
	return s.Coupons.RecordCouponUse(tx, couponService.CouponUseInput{
		CouponID:  *b.BookingCouponID,
		Code:      code,
		BookingID: b.BookingID,
		Discount:  b.BookingDiscountAmount,
		Email:     b.BookingEmail,
	})
}

/* =========================================================
   Narrow status updates (payment_intent.*)
========================================================= */

// MarkFailed records a failed attempt. A paid or refunded booking is never downgraded.
func (s *BookingService) MarkFailed(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	return s.narrowStatus(ctx, bookingID, bookingModel.PaymentFailed)
}

// MarkSucceeded flips the status only; ledger, enrollment and coupon are left to MarkPaid.
func (s *BookingService) MarkSucceeded(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	return s.narrowStatus(ctx, bookingID, bookingModel.PaymentPaid)
}

func (s *BookingService) narrowStatus(ctx context.Context, bookingID uuid.UUID, to bookingModel.PaymentStatus) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&bookingModel.BookingModel{}).
		Where("booking_id = ? AND booking_payment_status IN ?", bookingID,
			[]bookingModel.PaymentStatus{bookingModel.PaymentPending, bookingModel.PaymentFailed}).
		Updates(map[string]any{
			"booking_payment_status": to,
			"booking_updated_at":     s.now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&bookingModel.BookingModel{}).Where("booking_id = ?", bookingID).Count(&n).Error; err != nil {
			return false, err
		}
		if n == 0 {
			return false, fiber.NewError(fiber.StatusNotFound, "booking not found")
		}
		log.Printf("[BookingService] SKIP narrow status booking=%s to=%s", bookingID, to)
		return false, nil
	}
	log.Printf("[BookingService] payment_status booking=%s -> %s", bookingID, to)
	return true, nil
}

/* =========================================================
   Refund / cancel
========================================================= */

type RefundInput struct {
	Amount     int
	Reason     string
	RecordedBy string
}

// RefundPayment appends a refund row (never more than the net paid) and re-derives status.
func (s *BookingService) RefundPayment(ctx context.Context, bookingID uuid.UUID, in RefundInput) (*bookingModel.BookingModel, error) {
	if in.Amount <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}
	now := s.now()
	var out *bookingModel.BookingModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		paid, refunded, err := s.sumPayments(tx, b.BookingID)
		if err != nil {
			return err
		}
		net := paid - refunded
		if net <= 0 {
			return fiber.NewError(fiber.StatusConflict, "booking has nothing left to refund")
		}
		if in.Amount > net {
			return fiber.NewError(fiber.StatusBadRequest, "refund exceeds the net amount paid ("+helper.FormatGBP(net)+")")
		}

		p := &paymentModel.Payment{
			PaymentBookingID:  b.BookingID,
			PaymentAmount:     in.Amount,
			PaymentMethod:     paymentModel.PaymentMethodRefund,
			PaymentStatus:     paymentModel.PaymentStatusRefunded,
			PaymentReference:  bookingModel.NewReference("RFD"),
			PaymentNote:       nonEmpty(in.Reason),
			PaymentRecordedBy: nonEmpty(in.RecordedBy),
			PaymentPaidAt:     &now,
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		status := DerivePaymentStatus(b.BookingAmount, paid, refunded+in.Amount)
		if err := tx.Model(&bookingModel.BookingModel{}).Where("booking_id = ?", b.BookingID).
			Updates(map[string]any{
				"booking_payment_status": status,
				"booking_updated_at":     now,
			}).Error; err != nil {
			return err
		}
		out, err = reloadBooking(tx, b.BookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[BookingService] REFUND ref=%s amount=%d status=%s", out.BookingReference, in.Amount, out.BookingPaymentStatus)
	if s.Notifier != nil {
		s.Notifier.PublishBookingEvent(ctx, "booking.refunded", out)
	}
	return out, nil
}

// CancelBooking marks the booking cancelled and gives the places back once. Money is not
// touched; refunds are a separate call.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*bookingModel.BookingModel, error) {
	now := s.now()
	var out *bookingModel.BookingModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if b.IsCancelled() {
			return fiber.NewError(fiber.StatusConflict, "booking is already cancelled")
		}

		upd := map[string]any{
			"booking_status":       bookingModel.BookingCancelled,
			"booking_cancelled_at": now,
			"booking_updated_at":   now,
		}
		if r := strings.TrimSpace(reason); r != "" {
			upd["booking_cancel_reason"] = r
		}
		if err := tx.Model(&bookingModel.BookingModel{}).Where("booking_id = ?", b.BookingID).Updates(upd).Error; err != nil {
			return err
		}

		release := tx.Model(&bookingModel.BookingModel{}).
			Where("booking_id = ? AND booking_enrollment_applied_at IS NOT NULL", b.BookingID).
			Update("booking_enrollment_applied_at", nil)
		if release.Error != nil {
			return release.Error
		}
		if release.RowsAffected == 1 {
			for _, sid := range b.SessionUUIDs() {
				if err := s.Ledger.ReleaseEnrollment(tx, sid); err != nil {
					return err
				}
			}
		}

		out, err = reloadBooking(tx, b.BookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[BookingService] CANCELLED ref=%s", out.BookingReference)
	if s.Notifier != nil {
		s.Notifier.PublishBookingEvent(ctx, "booking.cancelled", out)
	}
	return out, nil
}

/* =========================================================
   Reads
========================================================= */

func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*bookingModel.BookingModel, error) {
	var b bookingModel.BookingModel
	if err := s.DB.WithContext(ctx).Take(&b, "booking_id = ?", id).Error; err != nil {
		return nil, helper.MapDBError(err, "booking not found")
	}
	return &b, nil
}

func (s *BookingService) GetByReference(ctx context.Context, ref string) (*bookingModel.BookingModel, error) {
	var b bookingModel.BookingModel
	if err := s.DB.WithContext(ctx).
		Take(&b, "booking_reference = ?", strings.ToUpper(strings.TrimSpace(ref))).Error; err != nil {
		return nil, helper.MapDBError(err, "booking not found")
	}
	return &b, nil
}

// FindByPaymentReference resolves a provider order id to its booking.
func (s *BookingService) FindByPaymentReference(ctx context.Context, ref string) (*bookingModel.BookingModel, *paymentModel.Payment, error) {
	var p paymentModel.Payment
	if err := s.DB.WithContext(ctx).Take(&p, "payment_reference = ?", ref).Error; err != nil {
		return nil, nil, helper.MapDBError(err, "payment not found")
	}
	b, err := s.Get(ctx, p.PaymentBookingID)
	if err != nil {
		return nil, nil, err
	}
	return b, &p, nil
}

type ListFilter struct {
	Status        string
	PaymentStatus string
	Email         string
	SessionID     *uuid.UUID
	Search        string
}

func (s *BookingService) List(ctx context.Context, f ListFilter, p helper.Paging) ([]bookingModel.BookingModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&bookingModel.BookingModel{})
	switch st := strings.TrimSpace(f.Status); st {
	case "":
	case "provisional":
		q = q.Where("booking_status IS NULL")
	default:
		q = q.Where("booking_status = ?", st)
	}
	if ps := strings.TrimSpace(f.PaymentStatus); ps != "" {
		q = q.Where("booking_payment_status = ?", ps)
	}
	if em := strings.ToLower(strings.TrimSpace(f.Email)); em != "" {
		q = q.Where("booking_email = ?", em)
	}
	if f.SessionID != nil {
		q = q.Where("booking_session_id = ?", *f.SessionID)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(booking_reference) LIKE ? OR LOWER(booking_child_last_name) LIKE ? OR LOWER(booking_parent_last_name) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []bookingModel.BookingModel
	err := q.Order("booking_created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}

func (s *BookingService) ListByParentEmail(ctx context.Context, email string) ([]bookingModel.BookingModel, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "email is required")
	}
	var rows []bookingModel.BookingModel
	err := s.DB.WithContext(ctx).
		Where("booking_email = ?", email).
		Order("booking_created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (s *BookingService) ListPayments(ctx context.Context, bookingID uuid.UUID) ([]paymentModel.Payment, error) {
	var rows []paymentModel.Payment
	err := s.DB.WithContext(ctx).
		Where("payment_booking_id = ?", bookingID).
		Order("payment_created_at ASC").
		Find(&rows).Error
	return rows, err
}

/* =========================================================
   helpers
========================================================= */

func lockBooking(tx *gorm.DB, id uuid.UUID) (*bookingModel.BookingModel, error) {
	var b bookingModel.BookingModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&b, "booking_id = ?", id).Error; err != nil {
		return nil, helper.MapDBError(err, "booking not found")
	}
	return &b, nil
}

func reloadBooking(tx *gorm.DB, id uuid.UUID) (*bookingModel.BookingModel, error) {
	var b bookingModel.BookingModel
	if err := tx.Take(&b, "booking_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookingService) sumPayments(db *gorm.DB, bookingID uuid.UUID) (int, int, error) {
	var rows []paymentModel.Payment
	if err := db.Where("payment_booking_id = ?", bookingID).Find(&rows).Error; err != nil {
		return 0, 0, err
	}
	paid, refunded := Totals(rows)
	return paid, refunded, nil
}

func shortSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
