package service

import (
	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	paymentModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
)

// DerivePaymentStatus is the only place booking.payment_status is computed from money.
// amount is what the booking costs; paid and refunded are sums of the payment ledger.
func DerivePaymentStatus(amount, paid, refunded int) bookingModel.PaymentStatus {
	net := paid - refunded
	switch {
	case refunded > 0 && net <= 0:
		return bookingModel.PaymentRefunded
	case refunded > 0:
		return bookingModel.PaymentPartiallyRefunded
	case net >= amount && (paid > 0 || amount <= 0):
		return bookingModel.PaymentPaid
	case net > 0:
		return bookingModel.PaymentPartial
	default:
		return bookingModel.PaymentPending
	}
}

// Totals sums a booking's payment rows.
func Totals(rows []paymentModel.Payment) (paid, refunded int) {
	for i := range rows {
		p, r := rows[i].Signed()
		paid += p
		refunded += r
	}
	return paid, refunded
}
