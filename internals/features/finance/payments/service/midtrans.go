package service

import (
	"context"
	"errors"
	"log"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
)

/* =========================================================
   Midtrans Snap (hosted checkout)
========================================================= */

// MidtransGateway implements bookingService.CheckoutGateway. Built once in main.
type MidtransGateway struct {
	client snap.Client
}

// useProduction=true untuk Production, false untuk Sandbox.
func NewMidtransGateway(serverKey string, useProduction bool) *MidtransGateway {
	g := &MidtransGateway{}
	if useProduction {
		g.client.New(serverKey, midtrans.Production)
	} else {
		g.client.New(serverKey, midtrans.Sandbox)
	}
	return g
}

func (g *MidtransGateway) CreateCheckout(ctx context.Context, req bookingService.CheckoutRequest) (*bookingService.CheckoutSession, error) {
	if req.Amount <= 0 {
		return nil, errors.New("invalid checkout amount")
	}
	if req.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: int64(req.Amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       safe(req.OrderID),
				Price:    int64(req.Amount),
				Qty:      1,
				Name:     truncate(defaultString(req.ItemName, "Academy booking"), 50),
				Category: "Booking",
			},
		},
		CustomField1: req.BookingID.String(),
		CustomField2: req.PaymentID.String(),
	}

	resp, merr := g.client.CreateTransaction(sr)
	if merr != nil {
		log.Printf("[MIDTRANS] ERROR CreateTransaction order=%s err=%v", req.OrderID, merr)
		return nil, merr
	}
	return &bookingService.CheckoutSession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

/* =========================================================
   Utils
========================================================= */

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func defaultString(s string, def string) string {
	if s == "" {
		return def
	}
	return s
}

func safe(s string) string {
	if s == "" {
		return "item-1"
	}
	return s
}
