// file: internals/features/bookings/block_bookings/model/block_booking_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlockStatus string

const (
	BlockActive    BlockStatus = "active"
	BlockCompleted BlockStatus = "completed"
	BlockExpired   BlockStatus = "expired"
	BlockRefunded  BlockStatus = "refunded"
	BlockCancelled BlockStatus = "cancelled"
)

/*
  block_bookings = bundel sesi prabayar
  - block_booking_remaining_sessions hanya turun lewat deduct (server-side -1, kondisional)
  - riwayat pemakaian di block_booking_usages (append-only)
*/

type BlockBookingModel struct {
	BlockBookingID        uuid.UUID  `gorm:"column:block_booking_id;type:uuid;primaryKey" json:"block_booking_id"`
	BlockBookingReference string     `gorm:"column:block_booking_reference;type:varchar(20);not null;uniqueIndex:uq_block_bookings_reference" json:"block_booking_reference"`
	BlockBookingPackageID *uuid.UUID `gorm:"column:block_booking_package_id;type:uuid" json:"block_booking_package_id,omitempty"`
	BlockBookingSessionID *uuid.UUID `gorm:"column:block_booking_session_id;type:uuid" json:"block_booking_session_id,omitempty"`

	BlockBookingParentName string `gorm:"column:block_booking_parent_name;type:varchar(160);not null" json:"block_booking_parent_name"`
	BlockBookingEmail      string `gorm:"column:block_booking_email;type:varchar(200);not null;index" json:"block_booking_email"`
	BlockBookingPhone      string `gorm:"column:block_booking_phone;type:varchar(40)" json:"block_booking_phone"`
	BlockBookingChildName  string `gorm:"column:block_booking_child_name;type:varchar(160);not null" json:"block_booking_child_name"`

	BlockBookingTotalSessions     int `gorm:"column:block_booking_total_sessions;not null" json:"block_booking_total_sessions"`
	BlockBookingRemainingSessions int `gorm:"column:block_booking_remaining_sessions;not null" json:"block_booking_remaining_sessions"`
	BlockBookingPricePerSession   int `gorm:"column:block_booking_price_per_session;not null" json:"block_booking_price_per_session"`
	BlockBookingTotalPaid         int `gorm:"column:block_booking_total_paid;not null;default:0" json:"block_booking_total_paid"`
	BlockBookingRefundedAmount    int `gorm:"column:block_booking_refunded_amount;not null;default:0" json:"block_booking_refunded_amount"`

	BlockBookingStatus       BlockStatus `gorm:"column:block_booking_status;type:varchar(16);not null;default:'active';index" json:"block_booking_status"`
	BlockBookingExpiresAt    *time.Time  `gorm:"column:block_booking_expires_at" json:"block_booking_expires_at,omitempty"`
	BlockBookingRefundReason *string     `gorm:"column:block_booking_refund_reason" json:"block_booking_refund_reason,omitempty"`
	BlockBookingRefundedAt   *time.Time  `gorm:"column:block_booking_refunded_at" json:"block_booking_refunded_at,omitempty"`

	BlockBookingCreatedAt time.Time `gorm:"column:block_booking_created_at;autoCreateTime" json:"block_booking_created_at"`
	BlockBookingUpdatedAt time.Time `gorm:"column:block_booking_updated_at;autoUpdateTime" json:"block_booking_updated_at"`

	Usages []BlockBookingUsageModel `gorm:"foreignKey:BlockBookingUsageBlockBookingID;references:BlockBookingID" json:"usages,omitempty"`
}

func (BlockBookingModel) TableName() string { return "block_bookings" }

func (m *BlockBookingModel) BeforeCreate(tx *gorm.DB) error {
	if m.BlockBookingID == uuid.Nil {
		m.BlockBookingID = uuid.New()
	}
	if m.BlockBookingReference == "" {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		m.BlockBookingReference = "BLK-" + strings.ToUpper(raw[:8])
	}
	m.BlockBookingEmail = strings.ToLower(strings.TrimSpace(m.BlockBookingEmail))
	return nil
}

// block_booking_usages: unik per (block, tanggal, slot). Slot kosong disimpan "" supaya
// unique index tetap berlaku (NULL tidak pernah bentrok).
type BlockBookingUsageModel struct {
	BlockBookingUsageID             uuid.UUID `gorm:"column:block_booking_usage_id;type:uuid;primaryKey" json:"block_booking_usage_id"`
	BlockBookingUsageBlockBookingID uuid.UUID `gorm:"column:block_booking_usage_block_booking_id;type:uuid;not null;uniqueIndex:uq_block_usage_slot,priority:1" json:"block_booking_usage_block_booking_id"`
	BlockBookingUsageSessionDate    string    `gorm:"column:block_booking_usage_session_date;type:varchar(10);not null;uniqueIndex:uq_block_usage_slot,priority:2" json:"block_booking_usage_session_date"` // YYYY-MM-DD
	BlockBookingUsageSlotID         string    `gorm:"column:block_booking_usage_slot_id;type:varchar(80);not null;default:'';uniqueIndex:uq_block_usage_slot,priority:3" json:"block_booking_usage_slot_id"`
	BlockBookingUsageCoachID        *string   `gorm:"column:block_booking_usage_coach_id;type:varchar(120)" json:"block_booking_usage_coach_id,omitempty"`
	BlockBookingUsageDeductedBy     *string   `gorm:"column:block_booking_usage_deducted_by;type:varchar(120)" json:"block_booking_usage_deducted_by,omitempty"`
	BlockBookingUsageDeductedAt     time.Time `gorm:"column:block_booking_usage_deducted_at;not null" json:"block_booking_usage_deducted_at"`
}

func (BlockBookingUsageModel) TableName() string { return "block_booking_usages" }

func (m *BlockBookingUsageModel) BeforeCreate(tx *gorm.DB) error {
	if m.BlockBookingUsageID == uuid.Nil {
		m.BlockBookingUsageID = uuid.New()
	}
	if m.BlockBookingUsageDeductedAt.IsZero() {
		m.BlockBookingUsageDeductedAt = time.Now().UTC()
	}
	return nil
}
