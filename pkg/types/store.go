package types

import "errors"

// Store is the narrow view of a collection that the propagation engines
// depend on. All reads and writes of a batch happen between BeginCheckpoint
// and CommitCheckpoint; a failed batch is discarded with RollbackCheckpoint.
type Store interface {
	// GetNote returns the note with the given ID.
	// Returns ErrNotFound if no note exists with that ID.
	GetNote(id string) (*Note, error)

	// FindNotesByExactField returns the IDs of notes of the named type whose
	// field at fieldIndex equals value byte for byte.
	FindNotesByExactField(typeName string, fieldIndex int, value string) ([]string, error)

	// NoteIDsByType returns the IDs of every note of the given type.
	NoteIDsByType(noteTypeID string) ([]string, error)

	// GetDeck returns the deck with the given ID, or ErrNotFound.
	GetDeck(id string) (*Deck, error)

	// GetDeckByName returns the deck with the given name, or ErrNotFound.
	GetDeckByName(name string) (*Deck, error)

	// CreateDeck adds an empty deck. Returns ErrDuplicateName if a deck with
	// that name exists.
	CreateDeck(name string) (*Deck, error)

	// GetNoteType returns the note type with the given ID, or ErrNotFound.
	GetNoteType(id string) (*NoteType, error)

	// GetNoteTypeByName returns the note type with the given name, or
	// ErrNotFound.
	GetNoteTypeByName(name string) (*NoteType, error)

	// ListNoteTypes returns every note type ordered by name.
	ListNoteTypes() ([]*NoteType, error)

	// SetNoteTypeDefaultDeck binds nt to deck in both directions: the type's
	// default deck and the deck's default type. Both arguments are updated
	// in place.
	SetNoteTypeDefaultDeck(nt *NoteType, deck *Deck) error

	// NewNote returns an unsaved note of type nt with one empty value per
	// field and no tags.
	NewNote(nt *NoteType) (*Note, error)

	// AddNote persists a note created by NewNote and places its card in the
	// given deck. The generated ID is written to note.NoteID.
	AddNote(note *Note, deckID string) error

	// UpdateNote persists the fields and tags of an existing note.
	UpdateNote(note *Note) error

	// UpdateNotes persists several notes in one bulk write.
	UpdateNotes(notes []*Note) error

	// BeginCheckpoint opens an undoable unit of work. Only one checkpoint
	// can be open at a time.
	BeginCheckpoint(label string) (Checkpoint, error)

	// CommitCheckpoint makes every write since BeginCheckpoint durable and
	// records it as a single undo step.
	CommitCheckpoint(cp Checkpoint) error

	// RollbackCheckpoint discards every write since BeginCheckpoint.
	RollbackCheckpoint(cp Checkpoint) error
}

// Collection is a Store with lifecycle and administrative operations.
// Callers attach to a backend, work with notes, and detach when done.
type Collection interface {
	Store

	// Attach connects the collection to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrCollectionDetached.
	Detach() error

	// AddNoteType registers a note type. Returns ErrDuplicateName if a type
	// with that name exists and ErrInvalidData if fieldNames is empty.
	AddNoteType(name string, fieldNames []string) (*NoteType, error)

	// ListNotes returns the notes matching filter ordered by creation time.
	ListNotes(filter NoteFilter) ([]*Note, error)

	// ListDecks returns every deck ordered by name.
	ListDecks() ([]*Deck, error)

	// Undo reverts the most recently committed checkpoint and returns its
	// label. Returns ErrNothingToUndo when no checkpoint remains.
	Undo() (string, error)
}

// Checkpoint identifies an open unit of work.
type Checkpoint struct {
	ID    string
	Label string
}

// Collection lifecycle errors.
var (
	ErrCollectionDetached = errors.New("collection is detached")
	ErrAlreadyAttached    = errors.New("collection is already attached")
)

// Entity errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidName   = errors.New("invalid name")
	ErrDuplicateName = errors.New("name already exists")
	ErrInvalidField  = errors.New("field index out of range")
)

// Checkpoint errors.
var (
	ErrCheckpointOpen    = errors.New("a checkpoint is already open")
	ErrNoCheckpoint      = errors.New("no open checkpoint")
	ErrCheckpointUnknown = errors.New("checkpoint does not match the open checkpoint")
	ErrNothingToUndo     = errors.New("nothing to undo")
)
