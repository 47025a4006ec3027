// file: internals/helpers/db_errors.go
package helper

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueViolation deteksi unique violation Postgres (kode "23505"), gorm translated error,
// atau pesan driver lain (sqlite di test).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

// MapDBError maps store errors onto the fiber error taxonomy.
func MapDBError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, notFoundMsg)
	}
	if IsUniqueViolation(err) {
		return fiber.NewError(fiber.StatusConflict, "duplicate record")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fiber.NewError(fiber.StatusBadRequest, "referenced record not found")
	}
	return err
}
