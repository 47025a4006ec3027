package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	paymentModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

// POST /api/checkout
type CheckoutRequest struct {
	SessionIDs []uuid.UUID `json:"sessionIds" validate:"required,min=1,max=20"`

	ChildFirstName   string  `json:"childFirstName" validate:"required,max=80"`
	ChildLastName    string  `json:"childLastName" validate:"required,max=80"`
	ChildDateOfBirth *string `json:"childDateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	MedicalNotes     *string `json:"medicalNotes" validate:"omitempty,max=2000"`

	ParentFirstName string `json:"parentFirstName" validate:"required,max=80"`
	ParentLastName  string `json:"parentLastName" validate:"required,max=80"`
	Email           string `json:"email" validate:"required,email,max=200"`
	Phone           string `json:"phone" validate:"required,min=6,max=40"`

	PhotoConsent   bool `json:"photoConsent"`
	MedicalConsent bool `json:"medicalConsent"`
	TermsAccepted  bool `json:"termsAccepted" validate:"required"`

	CouponCode    string     `json:"couponCode" validate:"omitempty,max=40"`
	PaymentPlanID *uuid.UUID `json:"paymentPlanId"`
}

func (r CheckoutRequest) ToInput() bookingService.CreateBookingInput {
	in := bookingService.CreateBookingInput{
		SessionIDs:      r.SessionIDs,
		ChildFirstName:  r.ChildFirstName,
		ChildLastName:   r.ChildLastName,
		ParentFirstName: r.ParentFirstName,
		ParentLastName:  r.ParentLastName,
		Email:           r.Email,
		Phone:           r.Phone,
		PhotoConsent:    r.PhotoConsent,
		MedicalConsent:  r.MedicalConsent,
		TermsAccepted:   r.TermsAccepted,
		CouponCode:      r.CouponCode,
		PaymentPlanID:   r.PaymentPlanID,
	}
	if r.ChildDateOfBirth != nil {
		if d, err := dbtime.ParseDate(*r.ChildDateOfBirth); err == nil {
			in.ChildDateOfBirth = &d
		}
	}
	if r.MedicalNotes != nil && strings.TrimSpace(*r.MedicalNotes) != "" {
		notes := strings.TrimSpace(*r.MedicalNotes)
		in.ChildMedicalNotes = &notes
	}
	return in
}

// POST /api/admin/bookings/:id/payments
type ManualPaymentRequest struct {
	Amount int    `json:"amount" validate:"required,gt=0"`
	Method string `json:"method" validate:"required,oneof=cash bank_transfer card_terminal"`
	Note   string `json:"note" validate:"max=500"`
}

// POST /api/admin/bookings/:id/refund
type RefundRequest struct {
	Amount int    `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"max=500"`
}

// POST /api/admin/bookings/:id/cancel
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// POST /api/admin/bookings/:id/payment-link
type PaymentLinkRequest struct {
	Amount *int `json:"amount" validate:"omitempty,gt=0"`
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

// PublicBooking is what a parent sees by reference; no medical or contact details.
type PublicBooking struct {
	Reference      string                      `json:"reference"`
	ChildFirstName string                      `json:"childFirstName"`
	SessionIDs     []string                    `json:"sessionIds"`
	Amount         int                         `json:"amount"`
	Discount       int                         `json:"discount"`
	DepositAmount  *int                        `json:"depositAmount,omitempty"`
	BalanceDue     int                         `json:"balanceDue"`
	BalanceDueDate *string                     `json:"balanceDueDate,omitempty"`
	PaymentStatus  bookingModel.PaymentStatus  `json:"paymentStatus"`
	Status         *bookingModel.BookingStatus `json:"status,omitempty"`
	CheckoutURL    *string                     `json:"checkoutUrl,omitempty"`
	CreatedAt      time.Time                   `json:"createdAt"`
}

func ToPublic(b *bookingModel.BookingModel) PublicBooking {
	out := PublicBooking{
		Reference:      b.BookingReference,
		ChildFirstName: b.BookingChildFirstName,
		SessionIDs:     b.BookingSessionIDs,
		Amount:         b.BookingAmount,
		Discount:       b.BookingDiscountAmount,
		DepositAmount:  b.BookingDepositAmount,
		BalanceDue:     b.BookingBalanceDue,
		PaymentStatus:  b.BookingPaymentStatus,
		Status:         b.BookingStatus,
		CreatedAt:      b.BookingCreatedAt,
	}
	if b.BookingBalanceDueDate != nil {
		d := b.BookingBalanceDueDate.Format(dbtime.DateLayout)
		out.BalanceDueDate = &d
	}
	if b.BookingPaymentStatus == bookingModel.PaymentPending || b.BookingPaymentStatus == bookingModel.PaymentFailed {
		out.CheckoutURL = b.BookingCheckoutURL
	}
	return out
}

func ToPublicList(rows []bookingModel.BookingModel) []PublicBooking {
	out := make([]PublicBooking, 0, len(rows))
	for i := range rows {
		out = append(out, ToPublic(&rows[i]))
	}
	return out
}

type CheckoutResponse struct {
	Booking  PublicBooking                  `json:"booking"`
	Checkout *bookingService.CheckoutResult `json:"checkout"`
}

// BookingDetail: admin view, full row + payment ledger.
type BookingDetail struct {
	bookingModel.BookingModel
	Payments  []paymentModel.Payment `json:"payments"`
	NetPaid   int                    `json:"net_paid"`
	Refunded  int                    `json:"refunded"`
	Remaining int                    `json:"remaining"`
}

func ToDetail(b *bookingModel.BookingModel, payments []paymentModel.Payment) BookingDetail {
	paid, refunded := bookingService.Totals(payments)
	remaining := b.BookingAmount - (paid - refunded)
	if remaining < 0 {
		remaining = 0
	}
	if payments == nil {
		payments = []paymentModel.Payment{}
	}
	return BookingDetail{
		BookingModel: *b,
		Payments:     payments,
		NetPaid:      paid - refunded,
		Refunded:     refunded,
		Remaining:    remaining,
	}
}
