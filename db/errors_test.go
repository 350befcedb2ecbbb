package db

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	otherErr := errors.New("boom")
	for _, test := range []struct {
		Name     string
		Input    error
		Expected error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, ErrAlreadyExists},
		{"check violation", &pgconn.PgError{Code: pgerrcode.CheckViolation}, ErrOverflow},
		{"serialization failure", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, ErrConflict},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, ErrConflict},
		{"other pg error", &pgconn.PgError{Code: pgerrcode.SyntaxError}, nil},
		{"other error", otherErr, otherErr},
	} {
		t.Logf("Running sub-test %q", test.Name)
		err := classifyError(test.Input)
		if test.Expected == nil {
			require.Equal(t, test.Input, err, "Failed %s", test.Name)
		} else {
			require.ErrorIs(t, err, test.Expected, "Failed %s", test.Name)
		}
	}
	require.NoError(t, classifyError(nil))
	require.NoError(t, IgnoreErrNotFound(ErrNotFound))
	require.Equal(t, otherErr, IgnoreErrNotFound(otherErr))
}
