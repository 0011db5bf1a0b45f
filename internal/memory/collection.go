// Package memory implements the Collection interface using in-memory maps.
// It backs the "memory" backend and the propagation engine tests. Every
// checkpoint keeps a snapshot of the state it started from; rollback and undo
// restore that snapshot.
package memory

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

var _ types.Collection = (*Collection)(nil)

// Collection is an in-memory types.Collection.
type Collection struct {
	mu       sync.RWMutex
	attached bool
	state    state
	open     *checkpoint
	undo     []checkpoint
}

// checkpoint pairs a checkpoint handle with the state it started from.
type checkpoint struct {
	handle types.Checkpoint
	before state
}

type state struct {
	notes     map[string]*types.Note
	noteTypes map[string]*types.NoteType
	decks     map[string]*types.Deck
}

func newState() state {
	return state{
		notes:     make(map[string]*types.Note),
		noteTypes: make(map[string]*types.NoteType),
		decks:     make(map[string]*types.Deck),
	}
}

func (s state) clone() state {
	c := state{
		notes:     make(map[string]*types.Note, len(s.notes)),
		noteTypes: make(map[string]*types.NoteType, len(s.noteTypes)),
		decks:     make(map[string]*types.Deck, len(s.decks)),
	}
	for id, n := range s.notes {
		c.notes[id] = n.Clone()
	}
	for id, nt := range s.noteTypes {
		c.noteTypes[id] = nt.Clone()
	}
	for id, d := range s.decks {
		c.decks[id] = d.Clone()
	}
	return c
}

// New creates a detached in-memory collection.
func New() *Collection {
	return &Collection{state: newState()}
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Attach validates config and starts from an empty collection.
func (c *Collection) Attach(config types.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	c.state = newState()
	c.open = nil
	c.undo = nil
	c.attached = true
	return nil
}

// Detach drops all state. Idempotent.
func (c *Collection) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attached = false
	c.state = newState()
	c.open = nil
	c.undo = nil
	return nil
}

// Note operations.

// GetNote returns a copy of the note with the given ID.
func (c *Collection) GetNote(id string) (*types.Note, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	n, ok := c.state.notes[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return n.Clone(), nil
}

// FindNotesByExactField returns IDs of notes of the named type whose field at
// fieldIndex equals value. An unknown type name matches nothing.
func (c *Collection) FindNotesByExactField(typeName string, fieldIndex int, value string) ([]string, error) {
	if fieldIndex < 0 {
		return nil, types.ErrInvalidField
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	nt := c.noteTypeByName(typeName)
	if nt == nil {
		return nil, nil
	}
	var ids []string
	for _, n := range c.sortedNotes() {
		if n.NoteTypeID != nt.NoteTypeID || fieldIndex >= len(n.Fields) {
			continue
		}
		if n.Fields[fieldIndex] == value {
			ids = append(ids, n.NoteID)
		}
	}
	return ids, nil
}

// NoteIDsByType returns the IDs of every note of the type, oldest first.
func (c *Collection) NoteIDsByType(noteTypeID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	var ids []string
	for _, n := range c.sortedNotes() {
		if n.NoteTypeID == noteTypeID {
			ids = append(ids, n.NoteID)
		}
	}
	return ids, nil
}

// ListNotes returns copies of the notes matching filter, oldest first.
func (c *Collection) ListNotes(filter types.NoteFilter) ([]*types.Note, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	var out []*types.Note
	for _, n := range c.sortedNotes() {
		if filter.NoteTypeID != "" && n.NoteTypeID != filter.NoteTypeID {
			continue
		}
		if filter.DeckID != "" && n.DeckID != filter.DeckID {
			continue
		}
		out = append(out, n.Clone())
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// NewNote returns an unsaved note of type nt.
func (c *Collection) NewNote(nt *types.NoteType) (*types.Note, error) {
	if nt == nil {
		return nil, types.ErrInvalidData
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	if _, ok := c.state.noteTypes[nt.NoteTypeID]; !ok {
		return nil, types.ErrNotFound
	}
	return &types.Note{
		NoteTypeID: nt.NoteTypeID,
		DeckID:     nt.DefaultDeckID,
		Fields:     make([]string, len(nt.FieldNames)),
		Tags:       []string{},
	}, nil
}

// AddNote stores note in the given deck and assigns its ID.
func (c *Collection) AddNote(note *types.Note, deckID string) error {
	if note == nil || !note.ValidText() {
		return types.ErrInvalidData
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return types.ErrCollectionDetached
	}
	if _, ok := c.state.noteTypes[note.NoteTypeID]; !ok {
		return types.ErrNotFound
	}
	if _, ok := c.state.decks[deckID]; !ok {
		return types.ErrNotFound
	}
	now := time.Now()
	note.NoteID = newUUID()
	note.DeckID = deckID
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Tags == nil {
		note.Tags = []string{}
	}
	c.state.notes[note.NoteID] = note.Clone()
	return nil
}

// UpdateNote stores the fields and tags of an existing note.
func (c *Collection) UpdateNote(note *types.Note) error {
	return c.UpdateNotes([]*types.Note{note})
}

// UpdateNotes stores several notes. Nothing is written unless every note
// exists and holds valid UTF-8 text.
func (c *Collection) UpdateNotes(notes []*types.Note) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return types.ErrCollectionDetached
	}
	for _, n := range notes {
		if n == nil || !n.ValidText() {
			return types.ErrInvalidData
		}
		if _, ok := c.state.notes[n.NoteID]; !ok {
			return types.ErrNotFound
		}
	}
	now := time.Now()
	for _, n := range notes {
		stored := c.state.notes[n.NoteID]
		stored.Fields = slices.Clone(n.Fields)
		stored.Tags = slices.Clone(n.Tags)
		stored.UpdatedAt = now
		n.UpdatedAt = now
	}
	return nil
}

// sortedNotes returns the stored notes ordered by creation time then ID.
// The caller must hold c.mu.
func (c *Collection) sortedNotes() []*types.Note {
	out := make([]*types.Note, 0, len(c.state.notes))
	for _, n := range c.state.notes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *types.Note) int {
		if r := a.CreatedAt.Compare(b.CreatedAt); r != 0 {
			return r
		}
		return cmp.Compare(a.NoteID, b.NoteID)
	})
	return out
}
