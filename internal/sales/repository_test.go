package sales

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

func TestWrapPgErrorDuplicateKey(t *testing.T) {
	err := wrapPgError("sales: insert sale", &pgconn.PgError{Code: "23505", ConstraintName: "sales_receipt_key"})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Contains(t, err.Error(), "sales_receipt_key")
}

func TestWrapPgErrorSerializationFailure(t *testing.T) {
	// A concurrent refund or status flip on the same row surfaces as
	// SQLSTATE 40001 under repeatable read, before the conditional
	// status UPDATE gets a chance to report zero rows.
	err := wrapPgError("sales: tx", &pgconn.PgError{Code: "40001"})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestWrapPgErrorPassesOtherErrorsThrough(t *testing.T) {
	cause := errors.New("connection reset")
	err := wrapPgError("sales: tx", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, shared.ErrConflict)

	err = wrapPgError("sales: tx", &pgconn.PgError{Code: "23503"})
	assert.NotErrorIs(t, err, shared.ErrConflict)
}

func TestWrapPgErrorKeepsTaxonomyOfWrappedErrors(t *testing.T) {
	err := wrapPgError("sales: tx", ErrInvalidTransition)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}
