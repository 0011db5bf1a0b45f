// This file implements JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// loadAllJSONL reads each JSONL file from dataDir and inserts its records into
// the corresponding SQLite table. Loading is transactional: all succeed or
// the database remains empty. Tables load in dependency order, so rows
// referencing rows loaded earlier pass the foreign key checks. Malformed
// lines and records that violate constraints, dangling references included,
// are skipped. Unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, spec := range tableSpecs {
		records, err := readJSONL(filepath.Join(dataDir, spec.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", spec.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, spec, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", spec.file, spec.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into a table. Only the columns
// listed in the table spec are extracted.
func insertRecords(tx *sql.Tx, spec tableSpec, records []json.RawMessage) error {
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		spec.table,
		strings.Join(spec.columns, ", "),
		placeholders(len(spec.columns)),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", spec.table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		obj, err := decodeRecord(rec)
		if err != nil {
			continue
		}
		args, err := columnArgs(spec.columns, obj)
		if err != nil {
			continue
		}
		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}
