package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/notechain/internal/memory"
	"github.com/mesh-intelligence/notechain/pkg/chain"
	"github.com/mesh-intelligence/notechain/pkg/propagate"
	"github.com/mesh-intelligence/notechain/pkg/sqlite"
	"github.com/mesh-intelligence/notechain/pkg/types"
)

// session is an attached collection plus the engine built from config.
type session struct {
	cfg       *settings
	coll      types.Collection
	engine    *propagate.Engine
	log       *slog.Logger
	logCloser io.Closer
	out       io.Writer
	errOut    io.Writer
}

// newCollection returns a detached collection for the named backend.
func newCollection(backend string) types.Collection {
	if backend == types.BackendMemory {
		return memory.New()
	}
	return sqlite.NewBackend()
}

// openSession loads settings, attaches the configured collection, and builds
// the propagation engine. The caller must Close the session.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	log, closer, err := newLogger(cfg.logLevel, cfg.logFile, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	c, err := chain.New(cfg.stages, cfg.operationalTags...)
	if err != nil {
		closer.Close()
		return nil, userError("invalid chain in config: %w", err)
	}

	coll := newCollection(cfg.backend)
	if err := coll.Attach(types.Config{Backend: cfg.backend, DataDir: cfg.dataDir}); err != nil {
		closer.Close()
		if errors.Is(err, types.ErrBackendEmpty) || errors.Is(err, types.ErrBackendUnknown) {
			return nil, userError("backend %q: %w", cfg.backend, err)
		}
		return nil, sysError("attach collection: %w", err)
	}
	log.Debug("collection attached", "backend", cfg.backend, "data_dir", cfg.dataDir, "chain", c.String())
	if cfg.backend == types.BackendMemory {
		log.Warn("memory backend does not persist between commands; changes are lost on exit")
	}

	s := &session{
		cfg:       cfg,
		coll:      coll,
		log:       log,
		logCloser: closer,
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
	}
	s.engine = propagate.New(c, coll, propagate.Options{
		Namespace: cfg.namespace,
		Logger:    log.With("component", "propagate"),
		Notifier:  propagate.NotifierFunc(s.printNotice),
	})
	return s, nil
}

// Close detaches the collection and closes the log.
func (s *session) Close() error {
	detachErr := s.coll.Detach()
	closeErr := s.logCloser.Close()
	if detachErr != nil {
		return sysError("detach collection: %w", detachErr)
	}
	if closeErr != nil {
		return sysError("close log: %w", closeErr)
	}
	return nil
}

// printNotice shows an engine notice on stderr.
func (s *session) printNotice(n types.Notice) {
	fmt.Fprintln(s.errOut, n.Message)
}

// withSession runs fn against an open session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	runErr := fn(s)
	closeErr := s.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// storeError classifies a collection error for the exit code.
func storeError(what string, err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrDuplicateName),
		errors.Is(err, types.ErrNothingToUndo):
		return userError("%s: %w", what, err)
	default:
		return sysError("%s: %w", what, err)
	}
}

// noteTypeByName looks up a note type for a command argument.
func (s *session) noteTypeByName(name string) (*types.NoteType, error) {
	nt, err := s.coll.GetNoteTypeByName(name)
	if err != nil {
		return nil, storeError(fmt.Sprintf("note type %q", name), err)
	}
	return nt, nil
}

// deckByName looks up a deck for a command argument.
func (s *session) deckByName(name string) (*types.Deck, error) {
	d, err := s.coll.GetDeckByName(name)
	if err != nil {
		return nil, storeError(fmt.Sprintf("deck %q", name), err)
	}
	return d, nil
}
