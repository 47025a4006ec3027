package service

import (
	"context"

	"github.com/google/uuid"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	"github.com/mergimg0/ttnts121-sub004/internals/features/notifications/emails"
)

type CheckoutRequest struct {
	OrderID   string
	Amount    int // pence
	ItemName  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	BookingID uuid.UUID
	PaymentID uuid.UUID
}

type CheckoutSession struct {
	Token       string
	RedirectURL string
}

// CheckoutGateway creates a hosted payment page at the provider.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// Notifier sends the customer-facing side effects. Implementations never fail the caller.
type Notifier interface {
	SendConfirmation(ctx context.Context, b *bookingModel.BookingModel) emails.SendResult
	SendPaymentLink(ctx context.Context, b *bookingModel.BookingModel, url string, amount int) emails.SendResult
	PublishBookingEvent(ctx context.Context, event string, b *bookingModel.BookingModel)
}
