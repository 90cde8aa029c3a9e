package postgres_test

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// decimalArg matches a NUMERIC argument by value.
type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(decimal.RequireFromString(string(d)))
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func pqError(code, constraint string) *pq.Error {
	return &pq.Error{Code: pq.ErrorCode(code), Constraint: constraint, Message: "mock " + code}
}

func checkViolation(constraint string) *pq.Error {
	return pqError("23514", constraint)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
