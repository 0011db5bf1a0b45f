package sqlite

// Schema DDL for all tables.
const (
	createNoteTypes = `CREATE TABLE note_types (
    note_type_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    field_names TEXT NOT NULL,
    default_deck_id TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createDecks = `CREATE TABLE decks (
    deck_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    default_type_id TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createNotes = `CREATE TABLE notes (
    note_id TEXT PRIMARY KEY,
    note_type_id TEXT NOT NULL,
    fields TEXT NOT NULL,
    tags TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (note_type_id) REFERENCES note_types(note_type_id)
);`

	createCards = `CREATE TABLE cards (
    card_id TEXT PRIMARY KEY,
    note_id TEXT NOT NULL,
    deck_id TEXT NOT NULL,
    ord INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (note_id) REFERENCES notes(note_id),
    FOREIGN KEY (deck_id) REFERENCES decks(deck_id)
);`

	createCheckpoints = `CREATE TABLE checkpoints (
    checkpoint_id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createUndoEntries = `CREATE TABLE undo_entries (
    entry_id TEXT PRIMARY KEY,
    checkpoint_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    entity TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    before TEXT,
    FOREIGN KEY (checkpoint_id) REFERENCES checkpoints(checkpoint_id)
);`
)

// Index DDL for common queries.
const (
	idxNotesType        = `CREATE INDEX idx_notes_type ON notes(note_type_id);`
	idxCardsNote        = `CREATE INDEX idx_cards_note ON cards(note_id, ord);`
	idxCardsDeck        = `CREATE INDEX idx_cards_deck ON cards(deck_id);`
	idxUndoCheckpoint   = `CREATE INDEX idx_undo_checkpoint ON undo_entries(checkpoint_id, seq);`
	idxCheckpointsOrder = `CREATE INDEX idx_checkpoints_order ON checkpoints(created_at, checkpoint_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createNoteTypes,
	createDecks,
	createNotes,
	createCards,
	createCheckpoints,
	createUndoEntries,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxNotesType,
	idxCardsNote,
	idxCardsDeck,
	idxUndoCheckpoint,
	idxCheckpointsOrder,
}
