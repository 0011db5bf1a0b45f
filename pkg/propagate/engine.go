// Package propagate copies notes forward through a stage chain and
// synchronizes derivative notes with their master copies.
//
// Both entry points run as one batch inside a single store checkpoint.
// Per-note anomalies (a type outside the chain, an already copied note, a
// missing destination type, an ambiguous master) become outcomes and notices;
// only store failures abort the batch, in which case the checkpoint is rolled
// back.
package propagate

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/notechain/pkg/chain"
	"github.com/mesh-intelligence/notechain/pkg/types"
)

// Checkpoint labels shown by the store's undo history.
const (
	CopyLabel = "Copy forward"
	SyncLabel = "Synchronize stages"
)

// Notifier receives user-visible notices. Notify must not block.
type Notifier interface {
	Notify(n types.Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(types.Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n types.Notice) { f(n) }

// Options configures an Engine. The zero value is usable.
type Options struct {
	// Namespace restricts synchronization to note types whose name
	// contains it. Empty means every note type.
	Namespace string

	// Logger receives diagnostic output. Defaults to a discarding logger.
	Logger *slog.Logger

	// Notifier receives one notice per skipped or failed note.
	Notifier Notifier
}

// Engine runs copy and sync batches against a store.
type Engine struct {
	chain     *chain.Chain
	store     types.Store
	namespace string
	log       *slog.Logger
	notifier  Notifier
}

// New creates an Engine for the given chain and store.
func New(c *chain.Chain, store types.Store, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		chain:     c,
		store:     store,
		namespace: opts.Namespace,
		log:       log,
		notifier:  opts.Notifier,
	}
}

// Chain returns the engine's stage chain.
func (e *Engine) Chain() *chain.Chain { return e.chain }

// notify builds a notice, logs it, and forwards it to the notifier.
func (e *Engine) notify(kind types.NoticeKind, note *types.Note, format string, args ...any) types.Notice {
	n := types.Noticef(kind, note, format, args...)
	e.log.Info("notice", "kind", string(n.Kind), "note_id", n.NoteID, "message", n.Message)
	if e.notifier != nil {
		e.notifier.Notify(n)
	}
	return n
}

// run executes body inside a checkpoint. A body error rolls the checkpoint
// back; otherwise the checkpoint is committed.
func (e *Engine) run(label string, body func() error) error {
	cp, err := e.store.BeginCheckpoint(label)
	if err != nil {
		return fmt.Errorf("begin checkpoint %q: %w", label, err)
	}
	if err := body(); err != nil {
		if rbErr := e.store.RollbackCheckpoint(cp); rbErr != nil {
			e.log.Error("rollback failed", "checkpoint", label, "error", rbErr)
		}
		return err
	}
	if err := e.store.CommitCheckpoint(cp); err != nil {
		return fmt.Errorf("commit checkpoint %q: %w", label, err)
	}
	return nil
}
