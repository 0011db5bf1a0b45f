// JSON record structures for SQLite backend persistence.
// These structures define the JSONL record format for data files.
package sqlite

import "encoding/json"

// noteTypeJSON represents a note type in note_types.jsonl.
type noteTypeJSON struct {
	NoteTypeID    string   `json:"note_type_id"`
	Name          string   `json:"name"`
	FieldNames    []string `json:"field_names"`
	DefaultDeckID string   `json:"default_deck_id"`
	CreatedAt     string   `json:"created_at"`
}

// deckJSON represents a deck in decks.jsonl.
type deckJSON struct {
	DeckID        string `json:"deck_id"`
	Name          string `json:"name"`
	DefaultTypeID string `json:"default_type_id"`
	CreatedAt     string `json:"created_at"`
}

// noteJSON represents a note in notes.jsonl. A note's deck is recorded on
// its cards.
type noteJSON struct {
	NoteID     string   `json:"note_id"`
	NoteTypeID string   `json:"note_type_id"`
	Fields     []string `json:"fields"`
	Tags       []string `json:"tags"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// cardJSON represents a card in cards.jsonl.
type cardJSON struct {
	CardID    string `json:"card_id"`
	NoteID    string `json:"note_id"`
	DeckID    string `json:"deck_id"`
	Ord       int64  `json:"ord"`
	CreatedAt string `json:"created_at"`
}

// checkpointJSON represents a committed checkpoint in checkpoints.jsonl.
type checkpointJSON struct {
	CheckpointID string `json:"checkpoint_id"`
	Label        string `json:"label"`
	CreatedAt    string `json:"created_at"`
}

// undoEntryJSON represents the pre-image of one row touched by a checkpoint
// in undo_entries.jsonl. Before is null when the checkpoint created the row.
type undoEntryJSON struct {
	EntryID      string          `json:"entry_id"`
	CheckpointID string          `json:"checkpoint_id"`
	Seq          int64           `json:"seq"`
	Entity       string          `json:"entity"`
	EntityID     string          `json:"entity_id"`
	Before       json.RawMessage `json:"before"`
}
