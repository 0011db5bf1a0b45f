package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// setupCollection returns an attached collection that is detached when the
// test ends.
func setupCollection(t *testing.T) *Collection {
	t.Helper()
	c := New()
	require.NoError(t, c.Attach(types.Config{Backend: types.BackendMemory}))
	t.Cleanup(func() { c.Detach() })
	return c
}

func addNote(t *testing.T, c *Collection, nt *types.NoteType, deck *types.Deck, fields ...string) *types.Note {
	t.Helper()
	n, err := c.NewNote(nt)
	require.NoError(t, err)
	n.Fields = fields
	require.NoError(t, c.AddNote(n, deck.DeckID))
	return n
}

func TestAttachDetach(t *testing.T) {
	c := New()

	_, err := c.GetNote("x")
	assert.ErrorIs(t, err, types.ErrCollectionDetached)

	assert.ErrorIs(t, c.Attach(types.Config{}), types.ErrBackendEmpty)
	require.NoError(t, c.Attach(types.Config{Backend: types.BackendMemory}))
	assert.ErrorIs(t, c.Attach(types.Config{Backend: types.BackendMemory}), types.ErrAlreadyAttached)

	require.NoError(t, c.Detach())
	require.NoError(t, c.Detach())
}

func TestNoteLifecycle(t *testing.T) {
	c := setupCollection(t)
	nt, err := c.AddNoteType("English Yaryna", []string{"Front", "Back"})
	require.NoError(t, err)
	deck, err := c.CreateDeck("English::Yaryna")
	require.NoError(t, err)

	n, err := c.NewNote(nt)
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, n.Fields)
	assert.Empty(t, n.Tags)

	n.Fields = []string{"hello", "bonjour"}
	n.Tags = []string{"greeting"}
	require.NoError(t, c.AddNote(n, deck.DeckID))
	require.NotEmpty(t, n.NoteID)

	got, err := c.GetNote(n.NoteID)
	require.NoError(t, err)
	assert.Equal(t, deck.DeckID, got.DeckID)
	assert.Equal(t, []string{"hello", "bonjour"}, got.Fields)

	got.Tags = append(got.Tags, "yaryna")
	again, err := c.GetNote(n.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting"}, again.Tags, "returned notes are copies")

	require.NoError(t, c.UpdateNote(got))
	again, err = c.GetNote(n.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "yaryna"}, again.Tags)

	_, err = c.GetNote("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, c.UpdateNote(&types.Note{NoteID: "missing"}), types.ErrNotFound)
}

func TestUpdateNotesAllOrNothing(t *testing.T) {
	c := setupCollection(t)
	nt, err := c.AddNoteType("T", []string{"Front"})
	require.NoError(t, err)
	deck, err := c.CreateDeck("D")
	require.NoError(t, err)
	n := addNote(t, c, nt, deck, "a")

	n.Fields = []string{"changed"}
	err = c.UpdateNotes([]*types.Note{n, {NoteID: "missing"}})
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := c.GetNote(n.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Fields)
}

func TestRejectsInvalidUTF8(t *testing.T) {
	c := setupCollection(t)
	nt, err := c.AddNoteType("Card A", []string{"Front"})
	require.NoError(t, err)
	deck, err := c.CreateDeck("Deck A")
	require.NoError(t, err)
	n := addNote(t, c, nt, deck, "café")

	bad, err := c.NewNote(nt)
	require.NoError(t, err)
	bad.Fields = []string{"caf\xe9"}
	assert.ErrorIs(t, c.AddNote(bad, deck.DeckID), types.ErrInvalidData)

	n.Tags = []string{"\xff"}
	assert.ErrorIs(t, c.UpdateNotes([]*types.Note{n}), types.ErrInvalidData)

	got, err := c.GetNote(n.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, got.Fields)
	assert.Empty(t, got.Tags)
}

func TestFindNotesByExactField(t *testing.T) {
	c := setupCollection(t)
	master, err := c.AddNoteType("English Yaryna", []string{"Front", "Back"})
	require.NoError(t, err)
	other, err := c.AddNoteType("English Solia", []string{"Front", "Back"})
	require.NoError(t, err)
	deck, err := c.CreateDeck("D")
	require.NoError(t, err)

	a := addNote(t, c, master, deck, "hello", "bonjour")
	addNote(t, c, master, deck, "Hello", "salut")
	addNote(t, c, other, deck, "hello", "bonjour")

	ids, err := c.FindNotesByExactField("English Yaryna", 0, "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{a.NoteID}, ids)

	ids, err = c.FindNotesByExactField("English Yaryna", 5, "hello")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = c.FindNotesByExactField("Unknown", 0, "hello")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = c.FindNotesByExactField("English Yaryna", -1, "hello")
	assert.ErrorIs(t, err, types.ErrInvalidField)
}

func TestDecksAndNoteTypes(t *testing.T) {
	c := setupCollection(t)

	_, err := c.CreateDeck("")
	assert.ErrorIs(t, err, types.ErrInvalidName)
	deck, err := c.CreateDeck("B")
	require.NoError(t, err)
	_, err = c.CreateDeck("B")
	assert.ErrorIs(t, err, types.ErrDuplicateName)
	_, err = c.CreateDeck("A")
	require.NoError(t, err)

	decks, err := c.ListDecks()
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.Equal(t, "A", decks[0].Name)

	_, err = c.AddNoteType("T", nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)
	nt, err := c.AddNoteType("T", []string{"Front"})
	require.NoError(t, err)
	_, err = c.AddNoteType("T", []string{"Front"})
	assert.ErrorIs(t, err, types.ErrDuplicateName)

	require.NoError(t, c.SetNoteTypeDefaultDeck(nt, deck))
	assert.Equal(t, deck.DeckID, nt.DefaultDeckID)
	assert.Equal(t, nt.NoteTypeID, deck.DefaultTypeID)

	storedType, err := c.GetNoteTypeByName("T")
	require.NoError(t, err)
	assert.Equal(t, deck.DeckID, storedType.DefaultDeckID)
	storedDeck, err := c.GetDeckByName("B")
	require.NoError(t, err)
	assert.Equal(t, nt.NoteTypeID, storedDeck.DefaultTypeID)

	_, err = c.GetDeckByName("C")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = c.GetNoteTypeByName("U")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCheckpoints(t *testing.T) {
	c := setupCollection(t)
	nt, err := c.AddNoteType("T", []string{"Front"})
	require.NoError(t, err)
	deck, err := c.CreateDeck("D")
	require.NoError(t, err)

	t.Run("rollback discards writes", func(t *testing.T) {
		cp, err := c.BeginCheckpoint("batch")
		require.NoError(t, err)
		addNote(t, c, nt, deck, "rolled back")
		require.NoError(t, c.RollbackCheckpoint(cp))

		notes, err := c.ListNotes(types.NoteFilter{})
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("only one checkpoint at a time", func(t *testing.T) {
		cp, err := c.BeginCheckpoint("first")
		require.NoError(t, err)
		_, err = c.BeginCheckpoint("second")
		assert.ErrorIs(t, err, types.ErrCheckpointOpen)
		assert.ErrorIs(t, c.CommitCheckpoint(types.Checkpoint{ID: "other"}), types.ErrCheckpointUnknown)
		require.NoError(t, c.CommitCheckpoint(cp))
		assert.ErrorIs(t, c.CommitCheckpoint(cp), types.ErrNoCheckpoint)
	})

	t.Run("undo restores state before the checkpoint", func(t *testing.T) {
		cp, err := c.BeginCheckpoint("add note")
		require.NoError(t, err)
		addNote(t, c, nt, deck, "kept then undone")
		require.NoError(t, c.CommitCheckpoint(cp))

		notes, err := c.ListNotes(types.NoteFilter{})
		require.NoError(t, err)
		assert.Len(t, notes, 1)

		label, err := c.Undo()
		require.NoError(t, err)
		assert.Equal(t, "add note", label)

		notes, err = c.ListNotes(types.NoteFilter{})
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("undo stack drains", func(t *testing.T) {
		label, err := c.Undo()
		require.NoError(t, err)
		assert.Equal(t, "first", label)
		_, err = c.Undo()
		assert.ErrorIs(t, err, types.ErrNothingToUndo)
	})
}

func TestListNotesFilter(t *testing.T) {
	c := setupCollection(t)
	a, err := c.AddNoteType("A", []string{"Front"})
	require.NoError(t, err)
	b, err := c.AddNoteType("B", []string{"Front"})
	require.NoError(t, err)
	deck, err := c.CreateDeck("D")
	require.NoError(t, err)
	first := addNote(t, c, a, deck, "1")
	addNote(t, c, b, deck, "2")
	addNote(t, c, a, deck, "3")

	notes, err := c.ListNotes(types.NoteFilter{NoteTypeID: a.NoteTypeID})
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	notes, err = c.ListNotes(types.NoteFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, first.NoteID, notes[0].NoteID)

	ids, err := c.NoteIDsByType(b.NoteTypeID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
