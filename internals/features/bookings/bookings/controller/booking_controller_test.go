package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/dto"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	sessionService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/service"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

type stubGateway struct{}

func (stubGateway) CreateCheckout(_ context.Context, req bookingService.CheckoutRequest) (*bookingService.CheckoutSession, error) {
	return &bookingService.CheckoutSession{Token: "tok", RedirectURL: "https://pay.test/" + req.OrderID}, nil
}

func newApp(t *testing.T) (*fiber.App, *bookingService.BookingService) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := bookingService.NewBookingService(db, sessionService.NewCapacityLedger(), couponService.NewCouponService(db),
		planService.NewPaymentPlanService(db), stubGateway{}, nil, time.UTC)

	app := fiber.New()
	ctl := NewBookingController(svc)
	app.Post("/checkout", ctl.Checkout)
	app.Get("/bookings/:reference", ctl.Lookup)
	app.Get("/admin/bookings/:id", ctl.Detail)
	app.Post("/admin/bookings/:id/payments", ctl.ManualPayment)
	app.Post("/admin/bookings/:id/cancel", ctl.Cancel)
	return app, svc
}

func checkoutBody(sessionID string, terms bool) string {
	t := "false"
	if terms {
		t = "true"
	}
	return `{"sessionIds":["` + sessionID + `"],"childFirstName":"Sam","childLastName":"Carter",` +
		`"parentFirstName":"Alex","parentLastName":"Carter","email":"Alex@Example.com","phone":"07000000000",` +
		`"termsAccepted":` + t + `}`
}

func TestCheckoutAndLookup(t *testing.T) {
	app, svc := newApp(t)
	s := testutil.Session(t, svc.DB, "U9 Saturday", 10, 0, 3000)

	code, env := do(t, app, "POST", "/checkout", checkoutBody(s.SessionID.String(), true))
	if code != fiber.StatusCreated || !env.Success {
		t.Fatalf("checkout: status=%d env=%+v", code, env)
	}
	var res dto.CheckoutResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Booking.Reference == "" || res.Booking.Amount != 3000 || res.Booking.PaymentStatus != "pending" {
		t.Fatalf("booking = %+v", res.Booking)
	}
	if res.Checkout == nil || !strings.HasPrefix(res.Checkout.CheckoutURL, "https://pay.test/") || res.Checkout.Amount != 3000 {
		t.Fatalf("checkout = %+v", res.Checkout)
	}
	if res.Booking.CheckoutURL == nil {
		t.Fatal("pending booking should expose its checkout url")
	}

	ref := res.Booking.Reference
	code, _ = do(t, app, "GET", "/bookings/"+ref+"?email=someone@else.com", "")
	if code != fiber.StatusNotFound {
		t.Fatalf("wrong email: status=%d", code)
	}
	code, _ = do(t, app, "GET", "/bookings/"+ref, "")
	if code != fiber.StatusBadRequest {
		t.Fatalf("missing email: status=%d", code)
	}
	code, env = do(t, app, "GET", "/bookings/"+strings.ToLower(ref)+"?email=ALEX@example.com", "")
	if code != fiber.StatusOK {
		t.Fatalf("lookup: status=%d env=%+v", code, env)
	}
}

func TestCheckoutValidation(t *testing.T) {
	app, svc := newApp(t)
	s := testutil.Session(t, svc.DB, "U9", 10, 0, 3000)

	code, _ := do(t, app, "POST", "/checkout", checkoutBody(s.SessionID.String(), false))
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("terms not accepted: status=%d", code)
	}
	code, _ = do(t, app, "POST", "/checkout", `{"sessionIds":[]`)
	if code != fiber.StatusBadRequest {
		t.Fatalf("broken json: status=%d", code)
	}

	full := testutil.Session(t, svc.DB, "Full", 1, 1, 3000)
	code, env := do(t, app, "POST", "/checkout", checkoutBody(full.SessionID.String(), true))
	if code != fiber.StatusConflict || env.Success {
		t.Fatalf("full session: status=%d env=%+v", code, env)
	}
}

func TestManualPaymentEndpoint(t *testing.T) {
	app, svc := newApp(t)
	s := testutil.Session(t, svc.DB, "U9", 10, 3, 3000)
	b := testutil.PendingBooking(t, svc.DB, 3000, s)
	path := "/admin/bookings/" + b.BookingID.String()

	code, _ := do(t, app, "POST", path+"/payments", `{"amount":1000,"method":"cheque"}`)
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("bad method: status=%d", code)
	}

	code, env := do(t, app, "POST", path+"/payments", `{"amount":3000,"method":"cash","note":"paid at pitch"}`)
	if code != fiber.StatusCreated {
		t.Fatalf("manual payment: status=%d env=%+v", code, env)
	}
	if got := testutil.Enrolled(t, svc.DB, s.SessionID); got != 4 {
		t.Fatalf("enrolled = %d, want 4", got)
	}

	code, env = do(t, app, "GET", path, "")
	if code != fiber.StatusOK {
		t.Fatalf("detail: status=%d", code)
	}
	var detail struct {
		PaymentStatus string `json:"booking_payment_status"`
		NetPaid       int    `json:"net_paid"`
		Remaining     int    `json:"remaining"`
	}
	_ = json.Unmarshal(env.Data, &detail)
	if detail.PaymentStatus != "paid" || detail.NetPaid != 3000 || detail.Remaining != 0 {
		t.Fatalf("detail = %+v", detail)
	}

	code, _ = do(t, app, "POST", path+"/cancel", `{"reason":"moved away"}`)
	if code != fiber.StatusOK {
		t.Fatalf("cancel: status=%d", code)
	}
	if got := testutil.Enrolled(t, svc.DB, s.SessionID); got != 3 {
		t.Fatalf("enrolled after cancel = %d, want 3", got)
	}
	code, _ = do(t, app, "POST", path+"/cancel", ``)
	if code != fiber.StatusConflict {
		t.Fatalf("second cancel: status=%d", code)
	}
}
