package memory

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// Deck and note type operations.

// GetDeck returns a copy of the deck with the given ID.
func (c *Collection) GetDeck(id string) (*types.Deck, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	d, ok := c.state.decks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return d.Clone(), nil
}

// GetDeckByName returns a copy of the deck with the given name.
func (c *Collection) GetDeckByName(name string) (*types.Deck, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	for _, d := range c.state.decks {
		if d.Name == name {
			return d.Clone(), nil
		}
	}
	return nil, types.ErrNotFound
}

// CreateDeck adds an empty deck.
func (c *Collection) CreateDeck(name string) (*types.Deck, error) {
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	for _, d := range c.state.decks {
		if d.Name == name {
			return nil, types.ErrDuplicateName
		}
	}
	d := &types.Deck{DeckID: newUUID(), Name: name, CreatedAt: time.Now()}
	c.state.decks[d.DeckID] = d
	return d.Clone(), nil
}

// ListDecks returns copies of every deck ordered by name.
func (c *Collection) ListDecks() ([]*types.Deck, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	out := make([]*types.Deck, 0, len(c.state.decks))
	for _, d := range c.state.decks {
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b *types.Deck) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// GetNoteType returns a copy of the note type with the given ID.
func (c *Collection) GetNoteType(id string) (*types.NoteType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	nt, ok := c.state.noteTypes[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return nt.Clone(), nil
}

// GetNoteTypeByName returns a copy of the note type with the given name.
func (c *Collection) GetNoteTypeByName(name string) (*types.NoteType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	nt := c.noteTypeByName(name)
	if nt == nil {
		return nil, types.ErrNotFound
	}
	return nt.Clone(), nil
}

// ListNoteTypes returns copies of every note type ordered by name.
func (c *Collection) ListNoteTypes() ([]*types.NoteType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	out := make([]*types.NoteType, 0, len(c.state.noteTypes))
	for _, nt := range c.state.noteTypes {
		out = append(out, nt.Clone())
	}
	slices.SortFunc(out, func(a, b *types.NoteType) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// AddNoteType registers a note type.
func (c *Collection) AddNoteType(name string, fieldNames []string) (*types.NoteType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}
	if len(fieldNames) == 0 {
		return nil, types.ErrInvalidData
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return nil, types.ErrCollectionDetached
	}
	if c.noteTypeByName(name) != nil {
		return nil, types.ErrDuplicateName
	}
	nt := &types.NoteType{
		NoteTypeID: newUUID(),
		Name:       name,
		FieldNames: slices.Clone(fieldNames),
		CreatedAt:  time.Now(),
	}
	c.state.noteTypes[nt.NoteTypeID] = nt
	return nt.Clone(), nil
}

// SetNoteTypeDefaultDeck binds nt and deck to each other.
func (c *Collection) SetNoteTypeDefaultDeck(nt *types.NoteType, deck *types.Deck) error {
	if nt == nil || deck == nil {
		return types.ErrInvalidData
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return types.ErrCollectionDetached
	}
	storedType, ok := c.state.noteTypes[nt.NoteTypeID]
	if !ok {
		return types.ErrNotFound
	}
	storedDeck, ok := c.state.decks[deck.DeckID]
	if !ok {
		return types.ErrNotFound
	}
	storedType.DefaultDeckID = deck.DeckID
	storedDeck.DefaultTypeID = nt.NoteTypeID
	nt.DefaultDeckID = deck.DeckID
	deck.DefaultTypeID = nt.NoteTypeID
	return nil
}

// noteTypeByName returns the stored note type with the given name or nil.
// The caller must hold c.mu.
func (c *Collection) noteTypeByName(name string) *types.NoteType {
	for _, nt := range c.state.noteTypes {
		if nt.Name == name {
			return nt
		}
	}
	return nil
}
