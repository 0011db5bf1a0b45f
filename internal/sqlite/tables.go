package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Table names.
const (
	tableNoteTypes   = "note_types"
	tableDecks       = "decks"
	tableNotes       = "notes"
	tableCards       = "cards"
	tableCheckpoints = "checkpoints"
	tableUndoEntries = "undo_entries"
)

// tableSpec ties a table to its JSONL file and column list. The order of
// tableSpecs matters: tables with foreign keys load after the tables they
// reference.
type tableSpec struct {
	file    string
	table   string
	key     string
	columns []string
	// scan reads one row into its JSONL record.
	scan func(*sql.Rows) (any, error)
}

var tableSpecs = []tableSpec{
	{
		file:    "note_types.jsonl",
		table:   tableNoteTypes,
		key:     "note_type_id",
		columns: []string{"note_type_id", "name", "field_names", "default_deck_id", "created_at"},
		scan:    scanNoteType,
	},
	{
		file:    "decks.jsonl",
		table:   tableDecks,
		key:     "deck_id",
		columns: []string{"deck_id", "name", "default_type_id", "created_at"},
		scan:    scanDeck,
	},
	{
		file:    "notes.jsonl",
		table:   tableNotes,
		key:     "note_id",
		columns: []string{"note_id", "note_type_id", "fields", "tags", "created_at", "updated_at"},
		scan:    scanNote,
	},
	{
		file:    "cards.jsonl",
		table:   tableCards,
		key:     "card_id",
		columns: []string{"card_id", "note_id", "deck_id", "ord", "created_at"},
		scan:    scanCard,
	},
	{
		file:    "checkpoints.jsonl",
		table:   tableCheckpoints,
		key:     "checkpoint_id",
		columns: []string{"checkpoint_id", "label", "created_at"},
		scan:    scanCheckpoint,
	},
	{
		file:    "undo_entries.jsonl",
		table:   tableUndoEntries,
		key:     "entry_id",
		columns: []string{"entry_id", "checkpoint_id", "seq", "entity", "entity_id", "before"},
		scan:    scanUndoEntry,
	},
}

func specByTable(table string) (tableSpec, bool) {
	for _, s := range tableSpecs {
		if s.table == table {
			return s, true
		}
	}
	return tableSpec{}, false
}

// selectSQL builds a SELECT of the table's columns with an optional filter,
// ordered by key.
func (s tableSpec) selectSQL(where string) string {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(s.columns, ", "), s.table)
	if where != "" {
		query += " WHERE " + where
	}
	return query + " ORDER BY " + s.key
}

// dump returns the table's rows as JSONL records, optionally restricted by a
// WHERE clause.
func (s tableSpec) dump(q querier, where string, args ...any) ([]json.RawMessage, error) {
	return collect(q, s.selectSQL(where), args, s.scan)
}

// snapshot returns the JSONL record of one row, or nil if the row is absent.
func (s tableSpec) snapshot(q querier, id string) (json.RawMessage, error) {
	records, err := s.dump(q, s.key+" = ?", id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// upsert writes a JSONL record back into its row. Array and object values
// are stored as JSON text.
func (s tableSpec) upsert(q querier, record json.RawMessage) error {
	obj, err := decodeRecord(record)
	if err != nil {
		return fmt.Errorf("decoding %s record: %w", s.table, err)
	}
	args, err := columnArgs(s.columns, obj)
	if err != nil {
		return err
	}
	updates := make([]string, 0, len(s.columns)-1)
	for _, c := range s.columns {
		if c != s.key {
			updates = append(updates, c+" = excluded."+c)
		}
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		s.table,
		strings.Join(s.columns, ", "),
		placeholders(len(s.columns)),
		s.key,
		strings.Join(updates, ", "),
	)
	_, err = q.Exec(query, args...)
	return err
}

// remove deletes one row by key.
func (s tableSpec) remove(q querier, id string) error {
	_, err := q.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.table, s.key), id)
	return err
}

func decodeRecord(record json.RawMessage) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(record, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// columnArgs extracts column values from a decoded record. Missing columns
// become NULL; nested JSON is re-serialized.
func columnArgs(columns []string, obj map[string]any) ([]any, error) {
	args := make([]any, len(columns))
	for i, col := range columns {
		val, ok := obj[col]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encoding column %s: %w", col, err)
			}
			args[i] = string(b)
		default:
			args[i] = val
		}
	}
	return args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// collect runs query and marshals each row via scan.
func collect(q querier, query string, args []any, scan func(*sql.Rows) (any, error)) ([]json.RawMessage, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		records = append(records, data)
	}
	return records, rows.Err()
}

// decodeStrings parses a JSON array column. An empty or invalid value
// yields an empty slice.
func decodeStrings(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func encodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func scanNoteType(rows *sql.Rows) (any, error) {
	var r noteTypeJSON
	var fields string
	if err := rows.Scan(&r.NoteTypeID, &r.Name, &fields, &r.DefaultDeckID, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.FieldNames = decodeStrings(fields)
	return r, nil
}

func scanDeck(rows *sql.Rows) (any, error) {
	var r deckJSON
	if err := rows.Scan(&r.DeckID, &r.Name, &r.DefaultTypeID, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func scanNote(rows *sql.Rows) (any, error) {
	var r noteJSON
	var fields, tags string
	if err := rows.Scan(&r.NoteID, &r.NoteTypeID, &fields, &tags, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Fields = decodeStrings(fields)
	r.Tags = decodeStrings(tags)
	return r, nil
}

func scanCard(rows *sql.Rows) (any, error) {
	var r cardJSON
	if err := rows.Scan(&r.CardID, &r.NoteID, &r.DeckID, &r.Ord, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func scanCheckpoint(rows *sql.Rows) (any, error) {
	var r checkpointJSON
	if err := rows.Scan(&r.CheckpointID, &r.Label, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func scanUndoEntry(rows *sql.Rows) (any, error) {
	var r undoEntryJSON
	var before sql.NullString
	if err := rows.Scan(&r.EntryID, &r.CheckpointID, &r.Seq, &r.Entity, &r.EntityID, &before); err != nil {
		return nil, err
	}
	if before.Valid {
		r.Before = json.RawMessage(before.String)
	}
	return r, nil
}
