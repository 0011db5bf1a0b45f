package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// noteSelect reads notes with the deck of their first card.
const noteSelect = `SELECT n.note_id AS note_id, n.note_type_id AS note_type_id,
    COALESCE((SELECT c.deck_id FROM cards c WHERE c.note_id = n.note_id ORDER BY c.ord, c.card_id LIMIT 1), '') AS deck_id,
    n.fields AS fields, n.tags AS tags, n.created_at AS created_at, n.updated_at AS updated_at
FROM notes n`

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNoteRow(s rowScanner) (*types.Note, error) {
	var n types.Note
	var fields, tags, created, updated string
	if err := s.Scan(&n.NoteID, &n.NoteTypeID, &n.DeckID, &fields, &tags, &created, &updated); err != nil {
		return nil, err
	}
	n.Fields = decodeStrings(fields)
	n.Tags = decodeStrings(tags)
	n.CreatedAt = parseTime(created)
	n.UpdatedAt = parseTime(updated)
	return &n, nil
}

// GetNote returns the note with the given ID.
func (b *Backend) GetNote(id string) (*types.Note, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	n, err := scanNoteRow(b.q().QueryRow(noteSelect+" WHERE n.note_id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

// FindNotesByExactField returns IDs of notes of the named type whose field at
// fieldIndex equals value. An unknown type name matches nothing.
func (b *Backend) FindNotesByExactField(typeName string, fieldIndex int, value string) ([]string, error) {
	if fieldIndex < 0 {
		return nil, types.ErrInvalidField
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	return queryIDs(b.q(), `SELECT n.note_id FROM notes n
JOIN note_types t ON t.note_type_id = n.note_type_id
WHERE t.name = ? AND json_extract(n.fields, ?) = ?
ORDER BY n.created_at, n.note_id`, typeName, fmt.Sprintf("$[%d]", fieldIndex), value)
}

// NoteIDsByType returns the IDs of every note of the type, oldest first.
func (b *Backend) NoteIDsByType(noteTypeID string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	return queryIDs(b.q(), `SELECT note_id FROM notes WHERE note_type_id = ?
ORDER BY created_at, note_id`, noteTypeID)
}

// ListNotes returns the notes matching filter, oldest first.
func (b *Backend) ListNotes(filter types.NoteFilter) ([]*types.Note, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}

	query := "SELECT * FROM (" + noteSelect + ") WHERE 1 = 1"
	var args []any
	if filter.NoteTypeID != "" {
		query += " AND note_type_id = ?"
		args = append(args, filter.NoteTypeID)
	}
	if filter.DeckID != "" {
		query += " AND deck_id = ?"
		args = append(args, filter.DeckID)
	}
	query += " ORDER BY created_at, note_id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := b.q().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []*types.Note
	for rows.Next() {
		n, err := scanNoteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// NewNote returns an unsaved note of type nt.
func (b *Backend) NewNote(nt *types.NoteType) (*types.Note, error) {
	if nt == nil {
		return nil, types.ErrInvalidData
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	if err := exists(b.q(), tableNoteTypes, "note_type_id", nt.NoteTypeID); err != nil {
		return nil, err
	}
	return &types.Note{
		NoteTypeID: nt.NoteTypeID,
		DeckID:     nt.DefaultDeckID,
		Fields:     make([]string, len(nt.FieldNames)),
		Tags:       []string{},
	}, nil
}

// AddNote stores note with one card in the given deck and assigns its ID.
func (b *Backend) AddNote(note *types.Note, deckID string) error {
	if note == nil || !note.ValidText() {
		return types.ErrInvalidData
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrCollectionDetached
	}
	q := b.q()
	if err := exists(q, tableNoteTypes, "note_type_id", note.NoteTypeID); err != nil {
		return err
	}
	if err := exists(q, tableDecks, "deck_id", deckID); err != nil {
		return err
	}

	now := time.Now()
	noteID := generateUUID()
	cardID := generateUUID()
	if err := b.recordUndo(tableNotes, noteID); err != nil {
		return err
	}
	if err := b.recordUndo(tableCards, cardID); err != nil {
		return err
	}

	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	if _, err := q.Exec(`INSERT INTO notes (note_id, note_type_id, fields, tags, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		noteID, note.NoteTypeID, encodeStrings(note.Fields), encodeStrings(tags), formatTime(now), formatTime(now)); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	if _, err := q.Exec(`INSERT INTO cards (card_id, note_id, deck_id, ord, created_at) VALUES (?, ?, ?, 0, ?)`,
		cardID, noteID, deckID, formatTime(now)); err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	if err := b.touch(tableNotes, tableCards); err != nil {
		return err
	}

	note.NoteID = noteID
	note.DeckID = deckID
	note.Tags = tags
	note.CreatedAt = now
	note.UpdatedAt = now
	return nil
}

// UpdateNote stores the fields and tags of an existing note.
func (b *Backend) UpdateNote(note *types.Note) error {
	return b.UpdateNotes([]*types.Note{note})
}

// UpdateNotes stores several notes. Nothing is written unless every note
// exists and holds valid UTF-8 text.
func (b *Backend) UpdateNotes(notes []*types.Note) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrCollectionDetached
	}
	q := b.q()
	for _, n := range notes {
		if n == nil || !n.ValidText() {
			return types.ErrInvalidData
		}
		if err := exists(q, tableNotes, "note_id", n.NoteID); err != nil {
			return err
		}
	}
	if len(notes) == 0 {
		return nil
	}

	write := func(q querier) error {
		now := time.Now()
		for _, n := range notes {
			if err := b.recordUndo(tableNotes, n.NoteID); err != nil {
				return err
			}
			if _, err := q.Exec(`UPDATE notes SET fields = ?, tags = ?, updated_at = ? WHERE note_id = ?`,
				encodeStrings(n.Fields), encodeStrings(n.Tags), formatTime(now), n.NoteID); err != nil {
				return fmt.Errorf("update note %s: %w", n.NoteID, err)
			}
			n.UpdatedAt = now
		}
		return nil
	}

	if b.tx != nil {
		if err := write(b.tx); err != nil {
			return err
		}
	} else {
		if err := inTx(b.db, write); err != nil {
			return err
		}
	}
	return b.touch(tableNotes)
}

// inTx runs fn in its own transaction.
func inTx(db *sql.DB, fn func(querier) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// exists returns ErrNotFound unless a row with the given key exists.
func exists(q querier, table, key, id string) error {
	var one int
	err := q.QueryRow(fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", table, key), id).Scan(&one)
	return notFound(err)
}

func queryIDs(q querier, query string, args ...any) ([]string, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
