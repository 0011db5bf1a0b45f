package propagate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// syncFixture holds a master type and one derivative type per later stage.
type syncFixture struct {
	*fixture
	master, middle, youngest *types.NoteType
	deck                     *types.Deck
}

func newSyncFixture(t *testing.T, opts Options) *syncFixture {
	t.Helper()
	f := newFixture(t, stages, opts)
	return &syncFixture{
		fixture:  f,
		master:   f.noteType(t, "English Yaryna"),
		middle:   f.noteType(t, "English Solia"),
		youngest: f.noteType(t, "English Daryna"),
		deck:     f.deck(t, "English"),
	}
}

func TestSynchronizeFieldReplacement(t *testing.T) {
	f := newSyncFixture(t, Options{})
	f.note(t, f.master, f.deck, nil, "F", "new")
	child := f.note(t, f.middle, f.deck, []string{"solia"}, "F", "old")

	report, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Equal(t, []string{child.NoteID}, report.Updated)
	assert.Equal(t, []string{"F", "new"}, f.get(t, child.NoteID).Fields)
}

func TestSynchronizePrivateTagImmunity(t *testing.T) {
	f := newSyncFixture(t, Options{})
	f.note(t, f.master, f.deck, []string{"shared-x"}, "word", "слово")
	child := f.note(t, f.middle, f.deck, []string{"leech", "solia"}, "word", "слово")

	_, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"leech", "shared-x", "solia"}, f.get(t, child.NoteID).Tags)
}

func TestSynchronizeSharedTagsReplaced(t *testing.T) {
	f := newSyncFixture(t, Options{})
	f.note(t, f.master, f.deck, []string{"b", "c", "yaryna-only", "solia"}, "k")
	child := f.note(t, f.middle, f.deck, []string{"a", "b", "daryna"}, "k")

	_, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c", "daryna", "yaryna-only"}, f.get(t, child.NoteID).Tags)
}

func TestSynchronizeAmbiguousAndUnmatched(t *testing.T) {
	f := newSyncFixture(t, Options{})
	f.note(t, f.master, f.deck, nil, "twin", "one")
	f.note(t, f.master, f.deck, nil, "twin", "two")
	ambiguous := f.note(t, f.middle, f.deck, []string{"x"}, "twin", "stale")
	lonely := f.note(t, f.youngest, f.deck, []string{"y"}, "nobody", "stale")

	report, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Empty(t, report.Updated)
	assert.Equal(t, []string{ambiguous.NoteID}, report.Ambiguous)
	assert.Equal(t, []string{lonely.NoteID}, report.Unmatched)

	got := f.get(t, ambiguous.NoteID)
	assert.Equal(t, []string{"twin", "stale"}, got.Fields, "ambiguous match leaves fields alone")
	assert.Equal(t, []string{"x"}, got.Tags, "ambiguous match leaves tags alone")

	require.Len(t, f.notices, 2)
	assert.Equal(t, "Ambiguous source for twin (2 matches)", f.notices[0].Message)
	assert.Equal(t, "Can't find the source of nobody", f.notices[1].Message)
}

func TestSynchronizeUnchangedNotesAreNotWritten(t *testing.T) {
	f := newSyncFixture(t, Options{})
	f.note(t, f.master, f.deck, []string{"b", "a", "leech"}, "same", "value")
	child := f.note(t, f.middle, f.deck, []string{"a", "b", "solia"}, "same", "value")
	before := f.get(t, child.NoteID)

	report, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Empty(t, report.Updated)
	assert.Equal(t, before, f.get(t, child.NoteID))
}

func TestSynchronizeAllStagesAgainstMaster(t *testing.T) {
	f := newSyncFixture(t, Options{})
	f.note(t, f.master, f.deck, []string{"noun"}, "house", "будинок")
	mid := f.note(t, f.middle, f.deck, []string{"solia"}, "house", "хата")
	young := f.note(t, f.youngest, f.deck, []string{"daryna"}, "house", "дім")

	report, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Equal(t, []string{mid.NoteID, young.NoteID}, report.Updated, "stages processed in chain order")
	for _, id := range report.Updated {
		assert.Equal(t, []string{"house", "будинок"}, f.get(t, id).Fields)
	}
	assert.Equal(t, []string{"daryna", "noun"}, f.get(t, young.NoteID).Tags)

	label, err := f.coll.Undo()
	require.NoError(t, err)
	assert.Equal(t, SyncLabel, label)
	assert.Equal(t, []string{"house", "хата"}, f.get(t, mid.NoteID).Fields)
}

func TestSynchronizeNamespace(t *testing.T) {
	f := newSyncFixture(t, Options{Namespace: "English"})
	french := f.noteType(t, "French Yaryna")
	frenchChild := f.noteType(t, "French Solia")
	f.note(t, french, f.deck, nil, "chat", "new")
	outside := f.note(t, frenchChild, f.deck, nil, "chat", "old")
	f.note(t, f.master, f.deck, nil, "cat", "new")
	inside := f.note(t, f.middle, f.deck, nil, "cat", "old")

	report, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Equal(t, []string{inside.NoteID}, report.Updated)
	assert.Equal(t, []string{"chat", "old"}, f.get(t, outside.NoteID).Fields)
}

func TestSynchronizeSkipsTypesWithoutMaster(t *testing.T) {
	f := newFixture(t, stages, Options{})
	orphanType := f.noteType(t, "German Solia")
	deck := f.deck(t, "German")
	n := f.note(t, orphanType, deck, nil, "Hund", "dog")

	report, err := f.engine.SynchronizeAll()
	require.NoError(t, err)

	assert.Empty(t, report.Updated)
	assert.Empty(t, report.Unmatched)
	assert.Empty(t, f.notices)
	assert.Equal(t, []string{"Hund", "dog"}, f.get(t, n.NoteID).Fields)
}

func TestSynchronizeStoreFailureRollsBack(t *testing.T) {
	f := newSyncFixture(t, Options{})
	f.note(t, f.master, f.deck, nil, "F", "new")
	child := f.note(t, f.middle, f.deck, nil, "F", "old")

	errWrite := errors.New("write failed")
	engine := New(f.engine.Chain(), &failingStore{Collection: f.coll, updateErr: errWrite}, Options{})

	report, err := engine.SynchronizeAll()
	assert.ErrorIs(t, err, errWrite)
	assert.Nil(t, report)
	assert.Equal(t, []string{"F", "old"}, f.get(t, child.NoteID).Fields)

	_, err = f.coll.Undo()
	assert.ErrorIs(t, err, types.ErrNothingToUndo, "failed batch leaves no undo step")
}
