package postgres

import (
	"database/sql"
	"fmt"

	"github.com/omni/vaa-bridge/db"
)

func expectAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, db.ErrNotFound)
	}
	return nil
}
