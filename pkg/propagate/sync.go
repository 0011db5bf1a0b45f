package propagate

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// SyncReport summarizes a synchronization batch. Each list holds note IDs of
// derivative notes.
type SyncReport struct {
	Updated   []string `json:"updated"`
	Unmatched []string `json:"unmatched,omitempty"`
	Ambiguous []string `json:"ambiguous,omitempty"`
}

// SynchronizeAll brings every derivative note in line with its master copy:
// the note of the master-stage type whose front field is identical. Fields
// are replaced wholesale; shared tags are replaced while the derivative's
// private tags are kept. Changed notes are written with one bulk update at
// the end of the batch.
func (e *Engine) SynchronizeAll() (*SyncReport, error) {
	report := &SyncReport{}
	err := e.run(SyncLabel, func() error {
		noteTypes, err := e.store.ListNoteTypes()
		if err != nil {
			return fmt.Errorf("list note types: %w", err)
		}
		var pending []*types.Note
		for stage := 1; stage < e.chain.Len(); stage++ {
			for _, nt := range noteTypes {
				if !e.inStage(nt, stage) {
					continue
				}
				masterName, err := e.chain.Sibling(nt.Name, stage, 0)
				if err != nil {
					return err
				}
				master, err := e.store.GetNoteTypeByName(masterName)
				if errors.Is(err, types.ErrNotFound) {
					e.log.Debug("no master note type", "note_type", nt.Name, "master", masterName)
					continue
				}
				if err != nil {
					return fmt.Errorf("master of %q: %w", nt.Name, err)
				}
				changed, err := e.synchronizeChild(master, nt, report)
				if err != nil {
					return err
				}
				pending = append(pending, changed...)
			}
		}
		if len(pending) == 0 {
			return nil
		}
		if err := e.store.UpdateNotes(pending); err != nil {
			return fmt.Errorf("update %d notes: %w", len(pending), err)
		}
		for _, n := range pending {
			report.Updated = append(report.Updated, n.NoteID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("synchronization finished",
		"updated", len(report.Updated),
		"unmatched", len(report.Unmatched),
		"ambiguous", len(report.Ambiguous))
	return report, nil
}

// inStage reports whether nt belongs to the given stage and to the engine's
// namespace.
func (e *Engine) inStage(nt *types.NoteType, stage int) bool {
	if e.namespace != "" && !strings.Contains(nt.Name, e.namespace) {
		return false
	}
	got, ok := e.chain.Resolve(nt.Name)
	return ok && got == stage
}

// synchronizeChild reconciles every note of type child with its match among
// the notes of type master. It returns the notes that need to be written.
func (e *Engine) synchronizeChild(master, child *types.NoteType, report *SyncReport) ([]*types.Note, error) {
	e.log.Debug("synchronizing note type", "note_type", child.Name, "master", master.Name)

	ids, err := e.store.NoteIDsByType(child.NoteTypeID)
	if err != nil {
		return nil, fmt.Errorf("notes of %q: %w", child.Name, err)
	}
	var changed []*types.Note
	for _, id := range ids {
		note, err := e.store.GetNote(id)
		if err != nil {
			return nil, fmt.Errorf("get note %s: %w", id, err)
		}
		front := note.Front()
		matches, err := e.store.FindNotesByExactField(master.Name, types.FrontField, front)
		if err != nil {
			return nil, fmt.Errorf("find master of %q: %w", front, err)
		}
		switch len(matches) {
		case 1:
		case 0:
			e.notify(types.NoticeUnmatched, note, "Can't find the source of %s", front)
			report.Unmatched = append(report.Unmatched, note.NoteID)
			continue
		default:
			e.notify(types.NoticeAmbiguous, note, "Ambiguous source for %s (%d matches)", front, len(matches))
			report.Ambiguous = append(report.Ambiguous, note.NoteID)
			continue
		}

		src, err := e.store.GetNote(matches[0])
		if err != nil {
			return nil, fmt.Errorf("get master note %s: %w", matches[0], err)
		}
		if e.reconcile(src, note) {
			changed = append(changed, note)
		}
	}
	return changed, nil
}

// reconcile copies the fields and shared tags of src into dst and reports
// whether dst changed.
func (e *Engine) reconcile(src, dst *types.Note) bool {
	changed := false
	if !slices.Equal(src.Fields, dst.Fields) {
		e.log.Debug("synchronize fields", "note_id", dst.NoteID, "from", src.Fields, "to", dst.Fields)
		dst.Fields = slices.Clone(src.Fields)
		changed = true
	}
	if !e.chain.SharedTagsEqual(src.Tags, dst.Tags) {
		merged := e.chain.MergeTags(src.Tags, dst.Tags)
		e.log.Debug("synchronize tags", "note_id", dst.NoteID, "from", src.Tags, "old", dst.Tags, "new", merged)
		dst.Tags = merged
		changed = true
	}
	return changed
}
