package dto

import (
	"github.com/google/uuid"

	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
)

// POST /api/admin/block-bookings/:id/deduct
type DeductRequest struct {
	SessionDate     string  `json:"sessionDate" validate:"required,datetime=2006-01-02"`
	CoachID         *string `json:"coachId" validate:"omitempty,max=120"`
	TimetableSlotID *string `json:"timetableSlotId" validate:"omitempty,max=80"`
}

// POST /api/admin/block-bookings/:id/refund
type RefundRequest struct {
	SessionsToRefund *int   `json:"sessionsToRefund" validate:"omitempty,gt=0"`
	RefundAmount     *int   `json:"refundAmount" validate:"omitempty,gte=0"`
	Reason           string `json:"reason" validate:"max=500"`
}

type CreateBlockBookingRequest struct {
	BlockPackageID  *uuid.UUID `json:"block_package_id"`
	SessionID       *uuid.UUID `json:"session_id"`
	TotalSessions   int        `json:"total_sessions" validate:"gte=0"`
	PricePerSession int        `json:"price_per_session" validate:"gte=0"`
	TotalPaid       *int       `json:"total_paid" validate:"omitempty,gte=0"`
	ParentName      string     `json:"parent_name" validate:"required,max=160"`
	Email           string     `json:"email" validate:"required,email"`
	Phone           string     `json:"phone" validate:"max=40"`
	ChildName       string     `json:"child_name" validate:"required,max=160"`
}

type BlockBookingResponse struct {
	blockModel.BlockBookingModel
	BlockBookingEffectiveStatus blockModel.BlockStatus `json:"block_booking_effective_status"`
	BlockBookingRemainingValue  int                    `json:"block_booking_remaining_value"`
}

// FromModel attaches the status as it reads right now (expiry may not have run yet).
func FromModel(m *blockModel.BlockBookingModel, effective blockModel.BlockStatus) BlockBookingResponse {
	return BlockBookingResponse{
		BlockBookingModel:           *m,
		BlockBookingEffectiveStatus: effective,
		BlockBookingRemainingValue:  m.BlockBookingRemainingSessions * m.BlockBookingPricePerSession,
	}
}
