package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestFormatGBP(t *testing.T) {
	cases := map[int]string{0: "£0.00", 5: "£0.05", 1250: "£12.50", 100000: "£1000.00"}
	for in, want := range cases {
		if got := FormatGBP(in); got != want {
			t.Errorf("FormatGBP(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMapDBError(t *testing.T) {
	var fe *fiber.Error

	err := MapDBError(gorm.ErrRecordNotFound, "booking not found")
	if !errors.As(err, &fe) || fe.Code != fiber.StatusNotFound || fe.Message != "booking not found" {
		t.Fatalf("not found -> %v", err)
	}
	err = MapDBError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), "x")
	if !errors.As(err, &fe) || fe.Code != fiber.StatusConflict {
		t.Fatalf("unique -> %v", err)
	}
	err = MapDBError(&pgconn.PgError{Code: "23503"}, "x")
	if !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
		t.Fatalf("fk -> %v", err)
	}
	if !IsUniqueViolation(gorm.ErrDuplicatedKey) || !IsUniqueViolation(errors.New("UNIQUE constraint failed: payments.payment_reference")) {
		t.Fatal("unique violation not detected")
	}
	plain := errors.New("boom")
	if MapDBError(plain, "x") != plain || MapDBError(nil, "x") != nil {
		t.Fatal("unknown errors must pass through")
	}
}

func call(t *testing.T, h fiber.Handler, query string) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)
	resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestFromFiberErrorHidesInternals(t *testing.T) {
	code, body := call(t, func(c *fiber.Ctx) error {
		return FromFiberError(c, errors.New("pq: password authentication failed"))
	}, "")
	if code != fiber.StatusInternalServerError || body["message"] != "internal server error" || body["error_code"] != "INTERNAL_ERROR" {
		t.Fatalf("status=%d body=%v", code, body)
	}

	code, body = call(t, func(c *fiber.Ctx) error {
		return FromFiberError(c, fiber.NewError(fiber.StatusConflict, "booking is cancelled"))
	}, "")
	if code != fiber.StatusConflict || body["message"] != "booking is cancelled" || body["success"] != false {
		t.Fatalf("status=%d body=%v", code, body)
	}
}

func TestValidationError(t *testing.T) {
	type req struct {
		Amount int    `validate:"required,gt=0"`
		Email  string `validate:"required,email"`
	}
	code, body := call(t, func(c *fiber.Ctx) error {
		return ValidationError(c, validator.New().Struct(req{Email: "nope"}))
	}, "")
	fields, _ := body["errors"].(map[string]any)
	if code != fiber.StatusUnprocessableEntity || fields["Amount"] != "required" || fields["Email"] != "email" {
		t.Fatalf("status=%d body=%v", code, body)
	}
}

func TestPaging(t *testing.T) {
	var got Paging
	code, _ := call(t, func(c *fiber.Ctx) error {
		got = ResolvePaging(c, 25, 100)
		return JsonList(c, "ok", []int{1, 2}, BuildPagination(205, got))
	}, "?page=3&per_page=500")
	if code != fiber.StatusOK || got.Page != 3 || got.PerPage != 100 || got.Offset != 200 || got.Limit != 100 {
		t.Fatalf("paging = %+v", got)
	}

	p := BuildPagination(205, got)
	if p.TotalPages != 3 || p.HasNext || !p.HasPrev {
		t.Fatalf("pagination = %+v", p)
	}
	if p := BuildPagination(0, Paging{}); p.TotalPages != 1 || p.Page != 1 || p.PerPage != 20 {
		t.Fatalf("empty pagination = %+v", p)
	}
}
