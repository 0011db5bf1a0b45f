package sqlite

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// BeginCheckpoint opens a transaction that every later write runs in until
// the checkpoint is committed or rolled back.
func (b *Backend) BeginCheckpoint(label string) (types.Checkpoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Checkpoint{}, types.ErrCollectionDetached
	}
	if b.tx != nil {
		return types.Checkpoint{}, types.ErrCheckpointOpen
	}

	tx, err := b.db.Begin()
	if err != nil {
		return types.Checkpoint{}, fmt.Errorf("begin checkpoint: %w", err)
	}
	cp := types.Checkpoint{ID: generateUUID(), Label: label}
	if _, err := tx.Exec(`INSERT INTO checkpoints (checkpoint_id, label, created_at) VALUES (?, ?, ?)`,
		cp.ID, cp.Label, formatTime(time.Now())); err != nil {
		_ = tx.Rollback()
		return types.Checkpoint{}, fmt.Errorf("record checkpoint: %w", err)
	}

	b.tx = tx
	b.open = &cp
	b.seq = 0
	b.dirty = map[string]bool{tableCheckpoints: true, tableUndoEntries: true}
	return cp, nil
}

// CommitCheckpoint commits the transaction and rewrites the JSONL files of
// every table it touched.
func (b *Backend) CommitCheckpoint(cp types.Checkpoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkOpen(cp); err != nil {
		return err
	}
	tx := b.tx
	b.tx = nil
	b.open = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint %q: %w", cp.Label, err)
	}

	dirty := b.dirty
	b.dirty = make(map[string]bool)
	for _, spec := range tableSpecs {
		if !dirty[spec.table] {
			continue
		}
		if err := b.persistTable(spec.table); err != nil {
			return err
		}
	}
	return nil
}

// RollbackCheckpoint discards the transaction.
func (b *Backend) RollbackCheckpoint(cp types.Checkpoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkOpen(cp); err != nil {
		return err
	}
	tx := b.tx
	b.tx = nil
	b.open = nil
	b.dirty = make(map[string]bool)
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rollback checkpoint %q: %w", cp.Label, err)
	}
	return nil
}

// Undo restores the pre-images recorded by the most recent committed
// checkpoint, newest first, and forgets the checkpoint. Rows the checkpoint
// did not touch are left as they are.
func (b *Backend) Undo() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrCollectionDetached
	}
	if b.tx != nil {
		return "", types.ErrCheckpointOpen
	}

	var label string
	err := inTx(b.db, func(q querier) error {
		var id string
		err := q.QueryRow(`SELECT checkpoint_id, label FROM checkpoints
ORDER BY created_at DESC, checkpoint_id DESC LIMIT 1`).Scan(&id, &label)
		if err != nil {
			if notFound(err) == types.ErrNotFound {
				return types.ErrNothingToUndo
			}
			return err
		}

		entries, err := undoEntries(q, id)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := restore(q, e); err != nil {
				return err
			}
		}

		if _, err := q.Exec(`DELETE FROM undo_entries WHERE checkpoint_id = ?`, id); err != nil {
			return err
		}
		_, err = q.Exec(`DELETE FROM checkpoints WHERE checkpoint_id = ?`, id)
		return err
	})
	if err != nil {
		return "", err
	}

	b.dirty = make(map[string]bool)
	for _, spec := range tableSpecs {
		if err := b.persistTable(spec.table); err != nil {
			return "", err
		}
	}
	return label, nil
}

// recordUndo stores the current image of a row, or null if the row does not
// exist yet, before the open checkpoint writes it. Outside a checkpoint it
// does nothing.
func (b *Backend) recordUndo(table, id string) error {
	if b.tx == nil {
		return nil
	}
	spec, ok := specByTable(table)
	if !ok {
		return fmt.Errorf("record undo: unknown table %s", table)
	}
	before, err := spec.snapshot(b.tx, id)
	if err != nil {
		return fmt.Errorf("snapshot %s %s: %w", table, id, err)
	}
	var beforeArg any
	if before != nil {
		beforeArg = string(before)
	}
	b.seq++
	_, err = b.tx.Exec(`INSERT INTO undo_entries (entry_id, checkpoint_id, seq, entity, entity_id, before)
VALUES (?, ?, ?, ?, ?, ?)`, generateUUID(), b.open.ID, b.seq, table, id, beforeArg)
	return err
}

// undoEntries returns a checkpoint's entries, newest first.
func undoEntries(q querier, checkpointID string) ([]undoEntryJSON, error) {
	spec, _ := specByTable(tableUndoEntries)
	records, err := spec.dump(q, "checkpoint_id = ?", checkpointID)
	if err != nil {
		return nil, err
	}
	entries := make([]undoEntryJSON, 0, len(records))
	for _, rec := range records {
		var e undoEntryJSON
		if err := json.Unmarshal(rec, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b undoEntryJSON) int { return cmp.Compare(b.Seq, a.Seq) })
	return entries, nil
}

// restore puts one row back to its recorded image.
func restore(q querier, e undoEntryJSON) error {
	spec, ok := specByTable(e.Entity)
	if !ok {
		return fmt.Errorf("undo: unknown table %s", e.Entity)
	}
	if len(e.Before) == 0 || string(e.Before) == "null" {
		return spec.remove(q, e.EntityID)
	}
	return spec.upsert(q, e.Before)
}

// checkOpen verifies that cp is the open checkpoint. The caller must hold b.mu.
func (b *Backend) checkOpen(cp types.Checkpoint) error {
	if !b.attached {
		return types.ErrCollectionDetached
	}
	if b.open == nil {
		return types.ErrNoCheckpoint
	}
	if b.open.ID != cp.ID {
		return types.ErrCheckpointUnknown
	}
	return nil
}
