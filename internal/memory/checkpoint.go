package memory

import "github.com/mesh-intelligence/notechain/pkg/types"

// BeginCheckpoint snapshots the current state.
func (c *Collection) BeginCheckpoint(label string) (types.Checkpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return types.Checkpoint{}, types.ErrCollectionDetached
	}
	if c.open != nil {
		return types.Checkpoint{}, types.ErrCheckpointOpen
	}
	cp := types.Checkpoint{ID: newUUID(), Label: label}
	c.open = &checkpoint{handle: cp, before: c.state.clone()}
	return cp, nil
}

// CommitCheckpoint keeps the writes made since BeginCheckpoint and pushes the
// snapshot onto the undo stack.
func (c *Collection) CommitCheckpoint(cp types.Checkpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(cp); err != nil {
		return err
	}
	c.undo = append(c.undo, *c.open)
	c.open = nil
	return nil
}

// RollbackCheckpoint restores the snapshot taken by BeginCheckpoint.
func (c *Collection) RollbackCheckpoint(cp types.Checkpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(cp); err != nil {
		return err
	}
	c.state = c.open.before
	c.open = nil
	return nil
}

// Undo restores the state from before the last committed checkpoint. Writes
// made outside any checkpoint after that point are reverted as well.
func (c *Collection) Undo() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return "", types.ErrCollectionDetached
	}
	if c.open != nil {
		return "", types.ErrCheckpointOpen
	}
	if len(c.undo) == 0 {
		return "", types.ErrNothingToUndo
	}
	last := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	c.state = last.before
	return last.handle.Label, nil
}

// checkOpen verifies that cp is the open checkpoint. The caller must hold c.mu.
func (c *Collection) checkOpen(cp types.Checkpoint) error {
	if !c.attached {
		return types.ErrCollectionDetached
	}
	if c.open == nil {
		return types.ErrNoCheckpoint
	}
	if c.open.handle.ID != cp.ID {
		return types.ErrCheckpointUnknown
	}
	return nil
}
