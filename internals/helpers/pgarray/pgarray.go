// Package pgarray wraps lib/pq arrays so the same model migrates as text[]/integer[] on
// postgres and as plain text on other dialects (sqlite in tests).
package pgarray

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Strings []string

func (a Strings) Value() (driver.Value, error) { return pq.StringArray(a).Value() }

func (a *Strings) Scan(src any) error { return (*pq.StringArray)(a).Scan(src) }

func (Strings) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (a Strings) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// Intersects reports whether any of ids is in a.
func (a Strings) Intersects(ids []string) bool {
	for _, id := range ids {
		if a.Contains(id) {
			return true
		}
	}
	return false
}

type Int64s []int64

func (a Int64s) Value() (driver.Value, error) { return pq.Int64Array(a).Value() }

func (a *Int64s) Scan(src any) error { return (*pq.Int64Array)(a).Scan(src) }

func (Int64s) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "integer[]"
	}
	return "text"
}
