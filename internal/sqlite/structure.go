package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// Deck and note type operations.

const (
	deckSelect     = `SELECT deck_id, name, default_type_id, created_at FROM decks`
	noteTypeSelect = `SELECT note_type_id, name, field_names, default_deck_id, created_at FROM note_types`
)

func scanDeckRow(s rowScanner) (*types.Deck, error) {
	var d types.Deck
	var created string
	if err := s.Scan(&d.DeckID, &d.Name, &d.DefaultTypeID, &created); err != nil {
		return nil, err
	}
	d.CreatedAt = parseTime(created)
	return &d, nil
}

func scanNoteTypeRow(s rowScanner) (*types.NoteType, error) {
	var nt types.NoteType
	var fields, created string
	if err := s.Scan(&nt.NoteTypeID, &nt.Name, &fields, &nt.DefaultDeckID, &created); err != nil {
		return nil, err
	}
	nt.FieldNames = decodeStrings(fields)
	nt.CreatedAt = parseTime(created)
	return &nt, nil
}

// GetDeck returns the deck with the given ID.
func (b *Backend) GetDeck(id string) (*types.Deck, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	d, err := scanDeckRow(b.q().QueryRow(deckSelect+" WHERE deck_id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// GetDeckByName returns the deck with the given name.
func (b *Backend) GetDeckByName(name string) (*types.Deck, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	d, err := scanDeckRow(b.q().QueryRow(deckSelect+" WHERE name = ?", name))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// CreateDeck adds an empty deck.
func (b *Backend) CreateDeck(name string) (*types.Deck, error) {
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	q := b.q()
	if err := exists(q, tableDecks, "name", name); err == nil {
		return nil, types.ErrDuplicateName
	} else if err != types.ErrNotFound {
		return nil, err
	}

	d := &types.Deck{DeckID: generateUUID(), Name: name, CreatedAt: time.Now()}
	if err := b.recordUndo(tableDecks, d.DeckID); err != nil {
		return nil, err
	}
	if _, err := q.Exec(`INSERT INTO decks (deck_id, name, default_type_id, created_at) VALUES (?, ?, '', ?)`,
		d.DeckID, d.Name, formatTime(d.CreatedAt)); err != nil {
		return nil, fmt.Errorf("insert deck: %w", err)
	}
	if err := b.touch(tableDecks); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDecks returns every deck ordered by name.
func (b *Backend) ListDecks() ([]*types.Deck, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	rows, err := b.q().Query(deckSelect + " ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	out := []*types.Deck{}
	for rows.Next() {
		d, err := scanDeckRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetNoteType returns the note type with the given ID.
func (b *Backend) GetNoteType(id string) (*types.NoteType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	nt, err := scanNoteTypeRow(b.q().QueryRow(noteTypeSelect+" WHERE note_type_id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return nt, nil
}

// GetNoteTypeByName returns the note type with the given name.
func (b *Backend) GetNoteTypeByName(name string) (*types.NoteType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	nt, err := scanNoteTypeRow(b.q().QueryRow(noteTypeSelect+" WHERE name = ?", name))
	if err != nil {
		return nil, notFound(err)
	}
	return nt, nil
}

// ListNoteTypes returns every note type ordered by name.
func (b *Backend) ListNoteTypes() ([]*types.NoteType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	rows, err := b.q().Query(noteTypeSelect + " ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list note types: %w", err)
	}
	defer rows.Close()

	out := []*types.NoteType{}
	for rows.Next() {
		nt, err := scanNoteTypeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, nt)
	}
	return out, rows.Err()
}

// AddNoteType registers a note type.
func (b *Backend) AddNoteType(name string, fieldNames []string) (*types.NoteType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}
	if len(fieldNames) == 0 {
		return nil, types.ErrInvalidData
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrCollectionDetached
	}
	q := b.q()
	if err := exists(q, tableNoteTypes, "name", name); err == nil {
		return nil, types.ErrDuplicateName
	} else if err != types.ErrNotFound {
		return nil, err
	}

	nt := &types.NoteType{
		NoteTypeID: generateUUID(),
		Name:       name,
		FieldNames: append([]string(nil), fieldNames...),
		CreatedAt:  time.Now(),
	}
	if err := b.recordUndo(tableNoteTypes, nt.NoteTypeID); err != nil {
		return nil, err
	}
	if _, err := q.Exec(`INSERT INTO note_types (note_type_id, name, field_names, default_deck_id, created_at)
VALUES (?, ?, ?, '', ?)`,
		nt.NoteTypeID, nt.Name, encodeStrings(nt.FieldNames), formatTime(nt.CreatedAt)); err != nil {
		return nil, fmt.Errorf("insert note type: %w", err)
	}
	if err := b.touch(tableNoteTypes); err != nil {
		return nil, err
	}
	return nt, nil
}

// SetNoteTypeDefaultDeck binds nt and deck to each other.
func (b *Backend) SetNoteTypeDefaultDeck(nt *types.NoteType, deck *types.Deck) error {
	if nt == nil || deck == nil {
		return types.ErrInvalidData
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrCollectionDetached
	}
	q := b.q()
	if err := exists(q, tableNoteTypes, "note_type_id", nt.NoteTypeID); err != nil {
		return err
	}
	if err := exists(q, tableDecks, "deck_id", deck.DeckID); err != nil {
		return err
	}
	if err := b.recordUndo(tableNoteTypes, nt.NoteTypeID); err != nil {
		return err
	}
	if err := b.recordUndo(tableDecks, deck.DeckID); err != nil {
		return err
	}
	if _, err := q.Exec(`UPDATE note_types SET default_deck_id = ? WHERE note_type_id = ?`, deck.DeckID, nt.NoteTypeID); err != nil {
		return fmt.Errorf("update note type: %w", err)
	}
	if _, err := q.Exec(`UPDATE decks SET default_type_id = ? WHERE deck_id = ?`, nt.NoteTypeID, deck.DeckID); err != nil {
		return fmt.Errorf("update deck: %w", err)
	}
	if err := b.touch(tableNoteTypes, tableDecks); err != nil {
		return err
	}
	nt.DefaultDeckID = deck.DeckID
	deck.DefaultTypeID = nt.NoteTypeID
	return nil
}
