package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	sessionService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/service"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
	"github.com/mergimg0/ttnts121-sub004/internals/features/notifications/emails"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

const testSecret = "whsec_test"

type countingNotifier struct {
	confirmations int
	events        []string
}

func (n *countingNotifier) SendConfirmation(context.Context, *bookingModel.BookingModel) emails.SendResult {
	n.confirmations++
	return emails.SendResult{OK: true}
}

func (n *countingNotifier) SendPaymentLink(context.Context, *bookingModel.BookingModel, string, int) emails.SendResult {
	return emails.SendResult{OK: true}
}

func (n *countingNotifier) PublishBookingEvent(_ context.Context, event string, _ *bookingModel.BookingModel) {
	n.events = append(n.events, event)
}

func newProcessor(t *testing.T) (*WebhookProcessor, *gorm.DB, *countingNotifier) {
	t.Helper()
	db := testutil.NewDB(t)
	n := &countingNotifier{}
	bookings := bookingService.NewBookingService(db, sessionService.NewCapacityLedger(),
		couponService.NewCouponService(db), planService.NewPaymentPlanService(db), nil, nil, time.UTC)
	return NewWebhookProcessor(db, bookings, n, testSecret, "SB-server-key"), db, n
}

func checkoutCompleted(eventID, bookingID string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":"cs_%s","amount_total":1500,"payment_intent":"pi_%s","metadata":{"bookingId":%q}}}}`,
		eventID, eventID, eventID, bookingID))
}

func countEvents(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.PaymentGatewayEventModel{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func wantFiberCode(t *testing.T, err error, code int) {
	t.Helper()
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code != code {
		t.Fatalf("err = %v, want %d", err, code)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	sig := Sign(testSecret, body)
	if !VerifySignature(testSecret, body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature(testSecret, append(body, ' '), sig) {
		t.Fatal("tampered body accepted")
	}
	if VerifySignature("other", body, sig) || VerifySignature(testSecret, body, "zz") || VerifySignature(testSecret, body, "") {
		t.Fatal("bad signature accepted")
	}
}

func TestBadSignatureWritesNothing(t *testing.T) {
	p, db, _ := newProcessor(t)
	s := testutil.Session(t, db, "U9", 10, 0, 1500)
	b := testutil.PendingBooking(t, db, 1500, s)

	body := checkoutCompleted("evt_1", b.BookingID.String())
	_, err := p.HandlePayment(context.Background(), body, Sign("wrong", body), nil)
	wantFiberCode(t, err, fiber.StatusBadRequest)

	if countEvents(t, db) != 0 {
		t.Fatal("event recorded despite bad signature")
	}
	if testutil.Enrolled(t, db, s.SessionID) != 0 {
		t.Fatal("enrollment changed despite bad signature")
	}
}

func TestMissingSecretIsServerError(t *testing.T) {
	p, _, _ := newProcessor(t)
	p.Secret = ""
	body := []byte(`{}`)
	_, err := p.HandlePayment(context.Background(), body, Sign("", body), nil)
	wantFiberCode(t, err, fiber.StatusInternalServerError)
}

func TestDuplicateEventAppliedOnce(t *testing.T) {
	p, db, n := newProcessor(t)
	s := testutil.Session(t, db, "U9", 10, 4, 1500)
	b := testutil.PendingBooking(t, db, 1500, s)

	body := checkoutCompleted("evt_dup", b.BookingID.String())
	first, err := p.HandlePayment(context.Background(), body, Sign(testSecret, body), map[string]string{"User-Agent": "test"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.HandlePayment(context.Background(), body, Sign(testSecret, body), nil)
	if err != nil {
		t.Fatal(err)
	}

	if first.Status != model.GatewayEventStatusSuccess || first.Duplicate {
		t.Fatalf("first = %+v", first)
	}
	if !second.Duplicate {
		t.Fatalf("second = %+v", second)
	}
	if got := testutil.Enrolled(t, db, s.SessionID); got != 5 {
		t.Fatalf("enrolled = %d, want 5", got)
	}
	if n.confirmations != 1 {
		t.Fatalf("confirmations = %d, want 1", n.confirmations)
	}
	if countEvents(t, db) != 1 {
		t.Fatal("expected one event row")
	}

	var got bookingModel.BookingModel
	db.Take(&got, "booking_id = ?", b.BookingID)
	if got.BookingPaymentStatus != bookingModel.PaymentPaid || got.BookingPaymentReference == nil || *got.BookingPaymentReference != "pi_evt_dup" {
		t.Fatalf("booking = %s ref=%v", got.BookingPaymentStatus, got.BookingPaymentReference)
	}
}

func TestRedeliveryWithNewEventIDIsStillIdempotent(t *testing.T) {
	p, db, n := newProcessor(t)
	s := testutil.Session(t, db, "U9", 10, 0, 1500)
	b := testutil.PendingBooking(t, db, 1500, s)

	a := []byte(fmt.Sprintf(`{"id":"evt_a","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_intent":"pi_1","metadata":{"bookingId":%q}}}}`, b.BookingID))
	c := []byte(fmt.Sprintf(`{"id":"evt_b","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_intent":"pi_1","metadata":{"bookingId":%q}}}}`, b.BookingID))
	for _, body := range [][]byte{a, c} {
		if _, err := p.HandlePayment(context.Background(), body, Sign(testSecret, body), nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := testutil.Enrolled(t, db, s.SessionID); got != 1 {
		t.Fatalf("enrolled = %d, want 1", got)
	}
	if n.confirmations != 1 {
		t.Fatalf("confirmations = %d, want 1", n.confirmations)
	}
}

func TestUnknownAndIncompleteEventsAreIgnored(t *testing.T) {
	p, db, _ := newProcessor(t)

	unknown := []byte(`{"id":"evt_u","type":"customer.created","data":{"object":{}}}`)
	out, err := p.HandlePayment(context.Background(), unknown, Sign(testSecret, unknown), nil)
	if err != nil || out.Status != model.GatewayEventStatusIgnored {
		t.Fatalf("unknown: out=%+v err=%v", out, err)
	}

	noMeta := []byte(`{"id":"evt_m","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_9"}}}`)
	out, err = p.HandlePayment(context.Background(), noMeta, Sign(testSecret, noMeta), nil)
	if err != nil || out.Status != model.GatewayEventStatusIgnored {
		t.Fatalf("no metadata: out=%+v err=%v", out, err)
	}

	// no id: dedup falls back to a hash of the body
	anon := []byte(`{"type":"customer.updated"}`)
	if _, err := p.HandlePayment(context.Background(), anon, Sign(testSecret, anon), nil); err != nil {
		t.Fatal(err)
	}
	out, err = p.HandlePayment(context.Background(), anon, Sign(testSecret, anon), nil)
	if err != nil || !out.Duplicate {
		t.Fatalf("anon redelivery: out=%+v err=%v", out, err)
	}
	if countEvents(t, db) != 3 {
		t.Fatalf("events = %d, want 3", countEvents(t, db))
	}
}

func TestPaymentFailedEvent(t *testing.T) {
	p, db, _ := newProcessor(t)
	s := testutil.Session(t, db, "U9", 10, 0, 1500)
	b := testutil.PendingBooking(t, db, 1500, s)

	body := []byte(fmt.Sprintf(`{"id":"evt_f","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_f","metadata":{"bookingId":%q}}}}`, b.BookingID))
	out, err := p.HandlePayment(context.Background(), body, Sign(testSecret, body), nil)
	if err != nil || out.Status != model.GatewayEventStatusSuccess {
		t.Fatalf("out=%+v err=%v", out, err)
	}
	var got bookingModel.BookingModel
	db.Take(&got, "booking_id = ?", b.BookingID)
	if got.BookingPaymentStatus != bookingModel.PaymentFailed {
		t.Fatalf("status = %s", got.BookingPaymentStatus)
	}
}

func TestFailedProcessingIsAcknowledgedAndReplayable(t *testing.T) {
	p, db, n := newProcessor(t)
	s := testutil.Session(t, db, "U9", 10, 0, 1500)
	b := testutil.PendingBooking(t, db, 1500, s)

	// booking row missing when the event arrives
	if err := db.Delete(&bookingModel.BookingModel{}, "booking_id = ?", b.BookingID).Error; err != nil {
		t.Fatal(err)
	}
	body := checkoutCompleted("evt_r", b.BookingID.String())
	out, err := p.HandlePayment(context.Background(), body, Sign(testSecret, body), nil)
	if err != nil {
		t.Fatalf("processing failure must still be acknowledged: %v", err)
	}
	if out.Status != model.GatewayEventStatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}

	rows, total, err := p.ListEvents(context.Background(), EventFilter{Status: "failed"}, helper.Paging{Page: 1, PerPage: 20, Limit: 20})
	if err != nil || total != 1 || rows[0].GatewayEventError == nil {
		t.Fatalf("ListEvents total=%d err=%v", total, err)
	}

	if err := db.Create(b).Error; err != nil {
		t.Fatal(err)
	}
	replayed, err := p.Replay(context.Background(), out.EventID)
	if err != nil {
		t.Fatal(err)
	}
	if replayed.Status != model.GatewayEventStatusSuccess {
		t.Fatalf("replay status = %s", replayed.Status)
	}
	if got := testutil.Enrolled(t, db, s.SessionID); got != 1 {
		t.Fatalf("enrolled = %d, want 1", got)
	}
	if n.confirmations != 1 {
		t.Fatalf("confirmations = %d", n.confirmations)
	}

	_, err = p.Replay(context.Background(), out.EventID)
	wantFiberCode(t, err, fiber.StatusConflict)

	ev, err := p.GetEvent(context.Background(), out.EventID)
	if err != nil || ev.GatewayEventTryCount != 2 {
		t.Fatalf("try count = %v err=%v", ev, err)
	}
}

func TestMidtransSettlement(t *testing.T) {
	p, db, n := newProcessor(t)
	s := testutil.Session(t, db, "U9", 10, 0, 1500)
	b := testutil.PendingBooking(t, db, 1500, s)
	pay := &model.Payment{
		PaymentBookingID: b.BookingID,
		PaymentAmount:    1500,
		PaymentMethod:    model.PaymentMethodGateway,
		PaymentStatus:    model.PaymentStatusPending,
		PaymentReference: b.BookingReference + "-ABC123",
	}
	if err := db.Create(pay).Error; err != nil {
		t.Fatal(err)
	}

	notif := MidtransNotification{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderID:           pay.PaymentReference,
		GrossAmount:       "1500.00",
		TransactionID:     "tx-1",
	}
	sign := func(n MidtransNotification) []byte {
		n.SignatureKey = MidtransSignature(n, "SB-server-key")
		return []byte(fmt.Sprintf(`{"transaction_status":%q,"status_code":%q,"order_id":%q,"gross_amount":%q,"transaction_id":%q,"signature_key":%q}`,
			n.TransactionStatus, n.StatusCode, n.OrderID, n.GrossAmount, n.TransactionID, n.SignatureKey))
	}

	bad := []byte(`{"order_id":"x","status_code":"200","gross_amount":"1","signature_key":"abc"}`)
	_, err := p.HandleMidtrans(context.Background(), bad, nil)
	wantFiberCode(t, err, fiber.StatusUnauthorized)

	body := sign(notif)
	out, err := p.HandleMidtrans(context.Background(), body, nil)
	if err != nil || out.Status != model.GatewayEventStatusSuccess {
		t.Fatalf("out=%+v err=%v", out, err)
	}
	out, err = p.HandleMidtrans(context.Background(), body, nil)
	if err != nil || !out.Duplicate {
		t.Fatalf("redelivery out=%+v err=%v", out, err)
	}

	var got model.Payment
	db.Take(&got, "payment_id = ?", pay.PaymentID)
	if got.PaymentStatus != model.PaymentStatusPaid || got.PaymentExternalID == nil || *got.PaymentExternalID != "tx-1" {
		t.Fatalf("payment = %+v", got)
	}
	if testutil.Enrolled(t, db, s.SessionID) != 1 || n.confirmations != 1 {
		t.Fatalf("enrolled=%d confirmations=%d", testutil.Enrolled(t, db, s.SessionID), n.confirmations)
	}
}
