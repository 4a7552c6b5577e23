package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence increments and returns the counter in "<table>_sequence", seeded by the table's migration.
//
// Run sequences give history a stable, human-readable order (run #42).
func NextSequence(db *sql.DB, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", table, err)
	}
	return sequence, nil
}
