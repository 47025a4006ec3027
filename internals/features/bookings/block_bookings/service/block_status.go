package service

import (
	"time"

	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
)

type Transition string

const (
	TransitionDeduct Transition = "deduct"
	TransitionRefund Transition = "refund"
	TransitionTick   Transition = "tick" // scheduler / read path
)

// DeriveBlockStatus is the only place a block booking status is computed. cancelled and
// refunded are terminal. Running out of sessions means refunded when a refund emptied the
// bundle and completed otherwise. A partial refund leaves the status alone.
func DeriveBlockStatus(current blockModel.BlockStatus, remaining int, t Transition, expiresAt *time.Time, now time.Time) blockModel.BlockStatus {
	switch {
	case current == blockModel.BlockCancelled || current == blockModel.BlockRefunded:
		return current
	case remaining <= 0 && t == TransitionRefund:
		return blockModel.BlockRefunded
	case remaining <= 0:
		return blockModel.BlockCompleted
	case t == TransitionRefund:
		return current
	case current == blockModel.BlockExpired:
		return blockModel.BlockExpired
	case expiresAt != nil && now.After(*expiresAt):
		return blockModel.BlockExpired
	default:
		return blockModel.BlockActive
	}
}
