package controller

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/dto"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/discounts"
	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

func postValidate(t *testing.T, app *fiber.App, body string) (int, dto.ValidateCouponResponse) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/checkout/validate-coupon", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out dto.ValidateCouponResponse
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestValidateCouponEndpoint(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Coupon(t, db, "SAVE10", discounts.Percentage, 10)

	app := fiber.New()
	ctl := NewCouponController(couponService.NewCouponService(db))
	app.Post("/api/checkout/validate-coupon", ctl.ValidateCoupon)

	code, out := postValidate(t, app, `{"code":"save10","cartTotal":5000,"sessionIds":[]}`)
	if code != fiber.StatusOK || !out.Valid || out.Discount == nil || *out.Discount != 500 || *out.FinalTotal != 4500 {
		t.Fatalf("valid coupon: status=%d body=%+v", code, out)
	}

	code, out = postValidate(t, app, `{"code":"BOGUS","cartTotal":5000}`)
	if code != fiber.StatusOK || out.Valid || out.Error != couponService.MsgInvalidCode || out.Discount != nil {
		t.Fatalf("invalid coupon: status=%d body=%+v", code, out)
	}

	code, _ = postValidate(t, app, `{"code":`)
	if code != fiber.StatusBadRequest {
		t.Fatalf("malformed body: status=%d", code)
	}
}
