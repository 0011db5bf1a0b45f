package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Note type and deck administration.

func newTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage note types",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <field>...",
		Short: "Register a note type",
		Long: "Register a note type with the given field names. The first field is the\n" +
			"front field that synchronization matches on. The stage a type belongs to\n" +
			"is the first chain stage whose name appears in the type name.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				nt, err := s.coll.AddNoteType(args[0], args[1:])
				if err != nil {
					return storeError("add note type", err)
				}
				if flags.jsonMode {
					return writeJSON(s.out, nt)
				}
				fmt.Fprintf(s.out, "Added note type %s (%s)\n", nt.Name, nt.NoteTypeID)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List note types with their chain stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				all, err := s.coll.ListNoteTypes()
				if err != nil {
					return storeError("list note types", err)
				}
				if flags.jsonMode {
					return writeJSON(s.out, all)
				}
				c := s.engine.Chain()
				tw := newTable(s.out, "ID", "NAME", "STAGE", "FIELDS")
				for _, nt := range all {
					stage := "-"
					if i, ok := c.Resolve(nt.Name); ok {
						stage = c.Stage(i)
					}
					row(tw, nt.NoteTypeID, nt.Name, stage, strings.Join(nt.FieldNames, ", "))
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

func newDeckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Manage decks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create an empty deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				d, err := s.coll.CreateDeck(args[0])
				if err != nil {
					return storeError("add deck", err)
				}
				if flags.jsonMode {
					return writeJSON(s.out, d)
				}
				fmt.Fprintf(s.out, "Added deck %s (%s)\n", d.Name, d.DeckID)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				decks, err := s.coll.ListDecks()
				if err != nil {
					return storeError("list decks", err)
				}
				if flags.jsonMode {
					return writeJSON(s.out, decks)
				}
				tw := newTable(s.out, "ID", "NAME")
				for _, d := range decks {
					row(tw, d.DeckID, d.Name)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}
