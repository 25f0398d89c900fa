package repairs

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

func TestWrapPgErrorDuplicateKey(t *testing.T) {
	err := wrapPgError("repairs: insert repair", &pgconn.PgError{Code: "23505", ConstraintName: "repairs_ticket_key"})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Contains(t, err.Error(), "repairs_ticket_key")
}

func TestWrapPgErrorSerializationFailure(t *testing.T) {
	// Two concurrent transitions on one ticket: the loser's FOR UPDATE
	// read fails with SQLSTATE 40001 once the winner commits.
	err := wrapPgError("repairs: tx", &pgconn.PgError{Code: "40001"})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestWrapPgErrorPassesOtherErrorsThrough(t *testing.T) {
	cause := errors.New("connection reset")
	err := wrapPgError("repairs: tx", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, shared.ErrConflict)
}

func TestWrapPgErrorKeepsTaxonomyOfWrappedErrors(t *testing.T) {
	err := wrapPgError("repairs: tx", ErrInvalidTransition)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}
