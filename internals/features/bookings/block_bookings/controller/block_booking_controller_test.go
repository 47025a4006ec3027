package controller

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	blockService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/service"
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

func TestDeductEndpoint(t *testing.T) {
	db := testutil.NewDB(t)
	svc := blockService.NewBlockBookingService(db, planService.NewPaymentPlanService(db))
	b := testutil.BlockBooking(t, db, 4, 1000)

	app := fiber.New()
	ctl := NewBlockBookingController(svc)
	app.Post("/block-bookings/:id/deduct", ctl.Deduct)
	app.Post("/block-bookings/:id/refund", ctl.Refund)

	path := "/block-bookings/" + b.BlockBookingID.String()

	code, env := do(t, app, "POST", path+"/deduct", `{"sessionDate":"2026-03-14"}`)
	if code != fiber.StatusOK || !env.Success {
		t.Fatalf("deduct: status=%d env=%+v", code, env)
	}
	var res blockService.DeductResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RemainingSessions != 3 || res.NewStatus != "active" {
		t.Fatalf("deduct result = %+v", res)
	}

	code, env = do(t, app, "POST", path+"/deduct", `{"sessionDate":"2026-03-14"}`)
	if code != fiber.StatusConflict || env.Success {
		t.Fatalf("duplicate deduct: status=%d env=%+v", code, env)
	}

	code, _ = do(t, app, "POST", path+"/deduct", `{"sessionDate":"March 14"}`)
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("bad date: status=%d", code)
	}

	code, env = do(t, app, "POST", path+"/refund", ``)
	if code != fiber.StatusOK {
		t.Fatalf("refund: status=%d env=%+v", code, env)
	}
	var rr blockService.RefundResult
	_ = json.Unmarshal(env.Data, &rr)
	if rr.SessionsRefunded != 3 || rr.AmountRefunded != 3000 || rr.NewStatus != "refunded" {
		t.Fatalf("refund result = %+v", rr)
	}
}
