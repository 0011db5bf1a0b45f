package propagate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/notechain/internal/memory"
	"github.com/mesh-intelligence/notechain/pkg/chain"
	"github.com/mesh-intelligence/notechain/pkg/types"
)

// fixture bundles a collection, an engine over it, and the notices the
// engine emitted.
type fixture struct {
	coll    *memory.Collection
	engine  *Engine
	notices []types.Notice
}

func newFixture(t *testing.T, stages []string, opts Options) *fixture {
	t.Helper()
	c, err := chain.New(stages, chain.DefaultOperationalTags...)
	require.NoError(t, err)

	coll := memory.New()
	require.NoError(t, coll.Attach(types.Config{Backend: types.BackendMemory}))
	t.Cleanup(func() { coll.Detach() })

	f := &fixture{coll: coll}
	opts.Notifier = NotifierFunc(func(n types.Notice) { f.notices = append(f.notices, n) })
	f.engine = New(c, coll, opts)
	return f
}

func (f *fixture) noteType(t *testing.T, name string) *types.NoteType {
	t.Helper()
	nt, err := f.coll.AddNoteType(name, []string{"Front", "Back"})
	require.NoError(t, err)
	return nt
}

func (f *fixture) deck(t *testing.T, name string) *types.Deck {
	t.Helper()
	d, err := f.coll.CreateDeck(name)
	require.NoError(t, err)
	return d
}

func (f *fixture) note(t *testing.T, nt *types.NoteType, deck *types.Deck, tags []string, fields ...string) *types.Note {
	t.Helper()
	n, err := f.coll.NewNote(nt)
	require.NoError(t, err)
	n.Fields = fields
	if tags != nil {
		n.Tags = tags
	}
	require.NoError(t, f.coll.AddNote(n, deck.DeckID))
	return n
}

func (f *fixture) get(t *testing.T, id string) *types.Note {
	t.Helper()
	n, err := f.coll.GetNote(id)
	require.NoError(t, err)
	return n
}

func (f *fixture) notesOf(t *testing.T, nt *types.NoteType) []*types.Note {
	t.Helper()
	notes, err := f.coll.ListNotes(types.NoteFilter{NoteTypeID: nt.NoteTypeID})
	require.NoError(t, err)
	return notes
}

func (f *fixture) noticeKinds() []types.NoticeKind {
	var kinds []types.NoticeKind
	for _, n := range f.notices {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// failingStore wraps a collection and fails selected writes. Decks listed
// in lostDecks read as missing.
type failingStore struct {
	*memory.Collection
	updateErr error
	lostDecks map[string]bool
}

func (s *failingStore) GetDeck(id string) (*types.Deck, error) {
	if s.lostDecks[id] {
		return nil, types.ErrNotFound
	}
	return s.Collection.GetDeck(id)
}

func (s *failingStore) UpdateNote(n *types.Note) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Collection.UpdateNote(n)
}

func (s *failingStore) UpdateNotes(notes []*types.Note) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Collection.UpdateNotes(notes)
}
