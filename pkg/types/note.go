package types

import (
	"slices"
	"time"
	"unicode/utf8"
)

// FrontField is the index of the field used as a note's match key.
const FrontField = 0

// Note is a single record in the collection. A note belongs to exactly one
// note type and, through its first card, to exactly one deck.
type Note struct {
	NoteID     string    `json:"note_id"`      // UUID v7, generated by the store on AddNote.
	NoteTypeID string    `json:"note_type_id"` // Type the note was created with.
	DeckID     string    `json:"deck_id"`      // Deck of the note's first card.
	Fields     []string  `json:"fields"`       // Field values in note type order.
	Tags       []string  `json:"tags"`         // Tag strings; order is not significant.
	CreatedAt  time.Time `json:"created_at"`   // Timestamp of creation.
	UpdatedAt  time.Time `json:"updated_at"`   // Timestamp of last modification.
}

// Front returns the value of the match-key field, or "" when the note has no
// fields.
func (n *Note) Front() string {
	if len(n.Fields) <= FrontField {
		return ""
	}
	return n.Fields[FrontField]
}

// HasTag reports whether the note carries tag exactly.
func (n *Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// AddTag appends tag unless the note already carries it.
func (n *Note) AddTag(tag string) {
	if n.HasTag(tag) {
		return
	}
	n.Tags = append(n.Tags, tag)
}

// ValidText reports whether every field and tag is valid UTF-8. Stores keep
// text as JSON, which cannot hold other byte sequences unchanged.
func (n *Note) ValidText() bool {
	for _, f := range n.Fields {
		if !utf8.ValidString(f) {
			return false
		}
	}
	for _, t := range n.Tags {
		if !utf8.ValidString(t) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	c := *n
	c.Fields = slices.Clone(n.Fields)
	c.Tags = slices.Clone(n.Tags)
	return &c
}

// NoteType describes the structure of a family of notes. The stage a note
// belongs to is encoded in its type's Name.
type NoteType struct {
	NoteTypeID    string    `json:"note_type_id"`    // UUID v7.
	Name          string    `json:"name"`            // Unique, contains the stage token.
	FieldNames    []string  `json:"field_names"`     // Field names; index 0 is the front field.
	DefaultDeckID string    `json:"default_deck_id"` // Deck new notes of this type go to.
	CreatedAt     time.Time `json:"created_at"`      // Timestamp of creation.
}

// Clone returns a deep copy of the note type.
func (nt *NoteType) Clone() *NoteType {
	c := *nt
	c.FieldNames = slices.Clone(nt.FieldNames)
	return &c
}

// Deck groups the cards of notes. Sibling decks across stages share a name
// modulo the stage token.
type Deck struct {
	DeckID        string    `json:"deck_id"`         // UUID v7.
	Name          string    `json:"name"`            // Unique deck name.
	DefaultTypeID string    `json:"default_type_id"` // Note type last used to add notes to this deck.
	CreatedAt     time.Time `json:"created_at"`      // Timestamp of creation.
}

// Clone returns a copy of the deck.
func (d *Deck) Clone() *Deck {
	c := *d
	return &c
}

// NoteFilter narrows Collection.ListNotes. Zero values match everything.
type NoteFilter struct {
	NoteTypeID string
	DeckID     string
	Limit      int
}
