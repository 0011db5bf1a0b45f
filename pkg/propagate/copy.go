package propagate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// Outcome is the result of copying one note forward.
type Outcome string

// Copy outcomes.
const (
	Created              Outcome = "created"
	SkippedNotFound      Outcome = "skipped_not_found"
	SkippedNotInChain    Outcome = "skipped_not_in_chain"
	SkippedTerminalStage Outcome = "skipped_terminal_stage"
	SkippedAlreadyCopied Outcome = "skipped_already_copied"
	FailedMissingType    Outcome = "failed_missing_type"
	SkippedMissingDeck   Outcome = "skipped_missing_deck"
)

// CopyResult describes what happened to one selected note.
type CopyResult struct {
	NoteID    string        `json:"note_id"`
	Outcome   Outcome       `json:"outcome"`
	NewNoteID string        `json:"new_note_id,omitempty"`
	Notice    *types.Notice `json:"notice,omitempty"`
}

// CopyReport lists one result per selected note, in selection order.
type CopyReport struct {
	Results []CopyResult `json:"results"`
}

// Created returns the IDs of the notes the batch created.
func (r *CopyReport) Created() []string {
	var ids []string
	for _, res := range r.Results {
		if res.Outcome == Created {
			ids = append(ids, res.NewNoteID)
		}
	}
	return ids
}

// Count returns how many results have the given outcome.
func (r *CopyReport) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// CopyForward copies every selected note to the next stage of the chain.
// Notes are processed in order within one checkpoint; a note selected twice
// is copied once. An empty selection emits a notice and opens no checkpoint.
func (e *Engine) CopyForward(ids []string) (*CopyReport, error) {
	report := &CopyReport{}
	if len(ids) == 0 {
		e.notify(types.NoticeNoSelection, nil, "No notes selected.")
		return report, nil
	}
	err := e.run(CopyLabel, func() error {
		for _, id := range ids {
			res, err := e.copyNote(id)
			if err != nil {
				return fmt.Errorf("copy note %s: %w", id, err)
			}
			report.Results = append(report.Results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("copy forward finished",
		"selected", len(ids), "created", report.Count(Created))
	return report, nil
}

// copyNote copies a single note. Expected anomalies are reported through the
// result; the error is reserved for store failures.
func (e *Engine) copyNote(id string) (CopyResult, error) {
	res := CopyResult{NoteID: id}
	skip := func(o Outcome, kind types.NoticeKind, note *types.Note, format string, args ...any) (CopyResult, error) {
		n := e.notify(kind, note, format, args...)
		res.Outcome = o
		res.Notice = &n
		return res, nil
	}

	note, err := e.store.GetNote(id)
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidID) {
		return skip(SkippedNotFound, types.NoticeNotFound, nil, "No such note: %s", id)
	}
	if err != nil {
		return res, err
	}

	noteType, err := e.store.GetNoteType(note.NoteTypeID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return res, err
	}
	src, ok := -1, false
	if noteType != nil {
		src, ok = e.chain.Resolve(noteType.Name)
	}
	if !ok {
		return skip(SkippedNotInChain, types.NoticeNotInChain, note,
			"Not one of %s: %s", e.chain, note.Front())
	}
	if e.chain.IsTerminal(src) {
		return skip(SkippedTerminalStage, types.NoticeTerminalStage, note,
			"Can't copy from %s: %s", e.chain.Stage(src), note.Front())
	}

	dst := src + 1
	dstTag := e.chain.Tag(dst)
	if note.HasTag(dstTag) {
		return skip(SkippedAlreadyCopied, types.NoticeAlreadyCopied, note,
			"Already copied: %s", note.Front())
	}

	srcDeck, err := e.store.GetDeck(note.DeckID)
	if errors.Is(err, types.ErrNotFound) {
		return skip(SkippedMissingDeck, types.NoticeMissingDeck, note,
			"No deck for %s", note.Front())
	}
	if err != nil {
		return res, fmt.Errorf("deck of note: %w", err)
	}
	dstDeck, err := e.destinationDeck(srcDeck, src, dst, note)
	if err != nil {
		return res, err
	}

	dstTypeName, err := e.chain.Sibling(noteType.Name, src, dst)
	if err != nil {
		return res, err
	}
	dstType, err := e.store.GetNoteTypeByName(dstTypeName)
	if errors.Is(err, types.ErrNotFound) {
		return skip(FailedMissingType, types.NoticeMissingNoteType, note,
			"No such note type %s", dstTypeName)
	}
	if err != nil {
		return res, err
	}

	if err := e.store.SetNoteTypeDefaultDeck(dstType, dstDeck); err != nil {
		return res, fmt.Errorf("bind %q to %q: %w", dstType.Name, dstDeck.Name, err)
	}

	copied, err := e.store.NewNote(dstType)
	if err != nil {
		return res, fmt.Errorf("new note: %w", err)
	}
	copied.Fields = slices.Clone(note.Fields)
	copied.Tags = e.chain.MergeTags(note.Tags, nil)
	if err := e.store.AddNote(copied, dstDeck.DeckID); err != nil {
		return res, fmt.Errorf("add note: %w", err)
	}

	note.AddTag(dstTag)
	if err := e.store.UpdateNote(note); err != nil {
		return res, fmt.Errorf("mark copied: %w", err)
	}

	e.log.Debug("note copied",
		"note_id", note.NoteID, "new_note_id", copied.NoteID,
		"from", e.chain.Stage(src), "to", e.chain.Stage(dst), "deck", dstDeck.Name)
	res.Outcome = Created
	res.NewNoteID = copied.NoteID
	return res, nil
}

// destinationDeck returns the sibling of srcDeck at stage dst, creating it
// when it does not exist yet.
func (e *Engine) destinationDeck(srcDeck *types.Deck, src, dst int, note *types.Note) (*types.Deck, error) {
	name, err := e.chain.Sibling(srcDeck.Name, src, dst)
	if err != nil {
		return nil, err
	}
	deck, err := e.store.GetDeckByName(name)
	if err == nil {
		return deck, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	e.notify(types.NoticeDeckCreated, note, "No such deck %s, adding", name)
	deck, err = e.store.CreateDeck(name)
	if err != nil {
		return nil, fmt.Errorf("create deck %q: %w", name, err)
	}
	return deck, nil
}
