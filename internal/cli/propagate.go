package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Commands bound to the two propagation actions and their undo.

func newCopyCmd() *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "copy [note-id]...",
		Short: "Copy notes to the next stage",
		Long: "Create a copy of every selected note in the next stage of the chain and\n" +
			"mark the source with the destination stage tag. Notes outside the chain,\n" +
			"in the last stage, or already copied are skipped with a notice. The whole\n" +
			"selection is one undo step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				ids := args
				if typeName != "" {
					nt, err := s.noteTypeByName(typeName)
					if err != nil {
						return err
					}
					more, err := s.coll.NoteIDsByType(nt.NoteTypeID)
					if err != nil {
						return storeError("select notes", err)
					}
					ids = append(ids, more...)
				}

				report, err := s.engine.CopyForward(ids)
				if err != nil {
					return storeError("copy forward", err)
				}
				if flags.jsonMode {
					return writeJSON(s.out, report)
				}
				if len(report.Results) == 0 {
					return nil
				}
				tw := newTable(s.out, "NOTE", "OUTCOME", "COPY")
				for _, r := range report.Results {
					newID := r.NewNoteID
					if newID == "" {
						newID = "-"
					}
					row(tw, r.NoteID, string(r.Outcome), newID)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "Copied %d of %d notes\n", len(report.Created()), len(report.Results))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "also select every note of this note type")
	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize every later stage with the master stage",
		Long: "Match every note of a later-stage type to the master-stage note with the\n" +
			"same front field, replace its fields, and replace its shared tags while\n" +
			"keeping its private tags. The run is one undo step.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				report, err := s.engine.SynchronizeAll()
				if err != nil {
					return storeError("synchronize", err)
				}
				if flags.jsonMode {
					return writeJSON(s.out, report)
				}
				fmt.Fprintf(s.out, "Synchronized: %d updated, %d unmatched, %d ambiguous\n",
					len(report.Updated), len(report.Unmatched), len(report.Ambiguous))
				return nil
			})
		},
	}
}

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last copy or sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				label, err := s.coll.Undo()
				if err != nil {
					return storeError("undo", err)
				}
				s.log.Info("undone", "checkpoint", label)
				if flags.jsonMode {
					return writeJSON(s.out, map[string]string{"undone": label})
				}
				fmt.Fprintf(s.out, "Undone: %s\n", label)
				return nil
			})
		},
	}
}
