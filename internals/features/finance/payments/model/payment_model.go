package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
  payments = ledger append-only per booking
  - refund = baris baru dengan payment_method='refund'
  - payment_reference unik: id checkout/payment_intent dari provider, atau MAN-xxxx untuk manual
*/

type Payment struct {
	PaymentID        uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`
	PaymentBookingID uuid.UUID `gorm:"column:payment_booking_id;type:uuid;not null;index:idx_payments_booking" json:"payment_booking_id"`

	// pence, selalu positif (arah ditentukan payment_method)
	PaymentAmount int           `gorm:"column:payment_amount;not null" json:"payment_amount"`
	PaymentMethod PaymentMethod `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(16);not null;default:'pending'" json:"payment_status"`

	PaymentReference   string  `gorm:"column:payment_reference;type:varchar(120);not null;uniqueIndex:uq_payments_reference" json:"payment_reference"`
	PaymentExternalID  *string `gorm:"column:payment_external_id;type:varchar(120)" json:"payment_external_id,omitempty"`
	PaymentCheckoutURL *string `gorm:"column:payment_checkout_url" json:"payment_checkout_url,omitempty"`
	PaymentNote        *string `gorm:"column:payment_note" json:"payment_note,omitempty"`
	PaymentRecordedBy  *string `gorm:"column:payment_recorded_by;type:varchar(120)" json:"payment_recorded_by,omitempty"`

	PaymentPaidAt    *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`
	PaymentCreatedAt time.Time  `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time  `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}

// Signed returns the amount as it counts towards the booking balance.
func (p *Payment) Signed() (paid int, refunded int) {
	if p.PaymentMethod == PaymentMethodRefund {
		if p.PaymentStatus == PaymentStatusRefunded || p.PaymentStatus == PaymentStatusPaid {
			return 0, p.PaymentAmount
		}
		return 0, 0
	}
	if p.PaymentStatus == PaymentStatusPaid {
		return p.PaymentAmount, 0
	}
	return 0, 0
}
