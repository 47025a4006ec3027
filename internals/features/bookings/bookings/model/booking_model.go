// file: internals/features/bookings/bookings/model/booking_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/helpers/pgarray"
)

type PaymentStatus string
type BookingStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentPartial           PaymentStatus = "partial"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingWaitlist  BookingStatus = "waitlist"
)

/*
  bookings
  - tidak pernah di-hard delete; cancel = booking_status 'cancelled'
  - booking_status NULL selama provisional (belum bayar)
  - booking_enrollment_applied_at = penanda at-most-once untuk session_enrolled + 1
*/

type BookingModel struct {
	BookingID        uuid.UUID `gorm:"column:booking_id;type:uuid;primaryKey" json:"booking_id"`
	BookingReference string    `gorm:"column:booking_reference;type:varchar(20);not null;uniqueIndex:uq_bookings_reference" json:"booking_reference"`

	// child
	BookingChildFirstName    string     `gorm:"column:booking_child_first_name;type:varchar(80);not null" json:"booking_child_first_name"`
	BookingChildLastName     string     `gorm:"column:booking_child_last_name;type:varchar(80);not null" json:"booking_child_last_name"`
	BookingChildDateOfBirth  *time.Time `gorm:"column:booking_child_date_of_birth" json:"booking_child_date_of_birth,omitempty"`
	BookingChildMedicalNotes *string    `gorm:"column:booking_child_medical_notes" json:"booking_child_medical_notes,omitempty"`

	// parent
	BookingParentFirstName string `gorm:"column:booking_parent_first_name;type:varchar(80);not null" json:"booking_parent_first_name"`
	BookingParentLastName  string `gorm:"column:booking_parent_last_name;type:varchar(80);not null" json:"booking_parent_last_name"`
	BookingEmail           string `gorm:"column:booking_email;type:varchar(200);not null;index" json:"booking_email"`
	BookingPhone           string `gorm:"column:booking_phone;type:varchar(40)" json:"booking_phone"`

	BookingSessionID  uuid.UUID       `gorm:"column:booking_session_id;type:uuid;not null;index" json:"booking_session_id"`
	BookingSessionIDs pgarray.Strings `gorm:"column:booking_session_ids" json:"booking_session_ids"`

	// pence, net setelah diskon
	BookingAmount         int        `gorm:"column:booking_amount;not null" json:"booking_amount"`
	BookingDiscountAmount int        `gorm:"column:booking_discount_amount;not null;default:0" json:"booking_discount_amount"`
	BookingCouponID       *uuid.UUID `gorm:"column:booking_coupon_id;type:uuid" json:"booking_coupon_id,omitempty"`
	BookingCouponCode     *string    `gorm:"column:booking_coupon_code;type:varchar(40)" json:"booking_coupon_code,omitempty"`

	BookingPaymentStatus PaymentStatus  `gorm:"column:booking_payment_status;type:varchar(20);not null;default:'pending';index" json:"booking_payment_status"`
	BookingStatus        *BookingStatus `gorm:"column:booking_status;type:varchar(16)" json:"booking_status,omitempty"`

	BookingPhotoConsent   bool `gorm:"column:booking_photo_consent;not null;default:false" json:"booking_photo_consent"`
	BookingMedicalConsent bool `gorm:"column:booking_medical_consent;not null;default:false" json:"booking_medical_consent"`
	BookingTermsAccepted  bool `gorm:"column:booking_terms_accepted;not null;default:false" json:"booking_terms_accepted"`

	// payment plan
	BookingPaymentPlanID  *uuid.UUID `gorm:"column:booking_payment_plan_id;type:uuid" json:"booking_payment_plan_id,omitempty"`
	BookingDepositAmount  *int       `gorm:"column:booking_deposit_amount" json:"booking_deposit_amount,omitempty"`
	BookingBalanceDue     int        `gorm:"column:booking_balance_due;not null;default:0" json:"booking_balance_due"`
	BookingBalanceDueDate *time.Time `gorm:"column:booking_balance_due_date" json:"booking_balance_due_date,omitempty"`

	BookingPaymentReference *string `gorm:"column:booking_payment_reference;type:varchar(120)" json:"booking_payment_reference,omitempty"`
	BookingCheckoutURL      *string `gorm:"column:booking_checkout_url" json:"booking_checkout_url,omitempty"`

	BookingPaidAt                *time.Time `gorm:"column:booking_paid_at" json:"booking_paid_at,omitempty"`
	BookingEnrollmentAppliedAt   *time.Time `gorm:"column:booking_enrollment_applied_at" json:"booking_enrollment_applied_at,omitempty"`
	BookingBalanceReminderSentAt *time.Time `gorm:"column:booking_balance_reminder_sent_at" json:"booking_balance_reminder_sent_at,omitempty"`
	BookingSessionReminderSentAt *time.Time `gorm:"column:booking_session_reminder_sent_at" json:"booking_session_reminder_sent_at,omitempty"`
	BookingCancelledAt           *time.Time `gorm:"column:booking_cancelled_at" json:"booking_cancelled_at,omitempty"`
	BookingCancelReason          *string    `gorm:"column:booking_cancel_reason" json:"booking_cancel_reason,omitempty"`

	BookingCreatedAt time.Time `gorm:"column:booking_created_at;autoCreateTime;index" json:"booking_created_at"`
	BookingUpdatedAt time.Time `gorm:"column:booking_updated_at;autoUpdateTime" json:"booking_updated_at"`
}

func (BookingModel) TableName() string { return "bookings" }

func (b *BookingModel) BeforeCreate(tx *gorm.DB) error {
	if b.BookingID == uuid.Nil {
		b.BookingID = uuid.New()
	}
	if b.BookingReference == "" {
		b.BookingReference = NewReference("TTN")
	}
	b.BookingEmail = strings.ToLower(strings.TrimSpace(b.BookingEmail))
	return nil
}

// NewReference returns PREFIX-XXXXXXXX (8 uppercase hex chars).
func NewReference(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:8])
}

// SessionUUIDs returns every booked session, primary first, without duplicates.
func (b *BookingModel) SessionUUIDs() []uuid.UUID {
	out := []uuid.UUID{b.BookingSessionID}
	seen := map[uuid.UUID]bool{b.BookingSessionID: true}
	for _, s := range b.BookingSessionIDs {
		id, err := uuid.Parse(s)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (b *BookingModel) IsCancelled() bool {
	return b.BookingStatus != nil && *b.BookingStatus == BookingCancelled
}

func (b *BookingModel) ChildName() string {
	return strings.TrimSpace(b.BookingChildFirstName + " " + b.BookingChildLastName)
}

func (b *BookingModel) ParentName() string {
	return strings.TrimSpace(b.BookingParentFirstName + " " + b.BookingParentLastName)
}

func StatusPtr(s BookingStatus) *BookingStatus { return &s }
