package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Add and inspect notes",
	}
	cmd.AddCommand(newNoteAddCmd(), newNoteListCmd(), newNoteShowCmd())
	return cmd
}

func newNoteAddCmd() *cobra.Command {
	var typeName, deckName string
	var tags []string
	cmd := &cobra.Command{
		Use:   "add --type <name> --deck <name> <field>...",
		Short: "Add a note",
		Long: "Add a note of the given type to the given deck. Field values are taken in\n" +
			"the type's field order; missing trailing fields are left empty. The deck\n" +
			"is created when it does not exist.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				nt, err := s.noteTypeByName(typeName)
				if err != nil {
					return err
				}
				if len(args) > len(nt.FieldNames) {
					return userError("note type %q has %d fields, got %d values", nt.Name, len(nt.FieldNames), len(args))
				}
				deck, err := s.coll.GetDeckByName(deckName)
				if errors.Is(err, types.ErrNotFound) {
					deck, err = s.coll.CreateDeck(deckName)
					if err == nil {
						fmt.Fprintf(s.errOut, "Created deck %s\n", deck.Name)
					}
				}
				if err != nil {
					return storeError(fmt.Sprintf("deck %q", deckName), err)
				}

				n, err := s.coll.NewNote(nt)
				if err != nil {
					return storeError("new note", err)
				}
				copy(n.Fields, args)
				for _, t := range tags {
					n.AddTag(t)
				}
				if err := s.coll.AddNote(n, deck.DeckID); err != nil {
					return storeError("add note", err)
				}
				s.log.Debug("note added", "note_id", n.NoteID, "note_type", nt.Name, "deck", deck.Name)

				if flags.jsonMode {
					return writeJSON(s.out, n)
				}
				fmt.Fprintln(s.out, n.NoteID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "note type name (required)")
	cmd.Flags().StringVar(&deckName, "deck", "", "deck name (required)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "tag to add (repeatable)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}

func newNoteListCmd() *cobra.Command {
	var typeName, deckName string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				filter := types.NoteFilter{Limit: limit}
				if typeName != "" {
					nt, err := s.noteTypeByName(typeName)
					if err != nil {
						return err
					}
					filter.NoteTypeID = nt.NoteTypeID
				}
				if deckName != "" {
					d, err := s.deckByName(deckName)
					if err != nil {
						return err
					}
					filter.DeckID = d.DeckID
				}

				notes, err := s.coll.ListNotes(filter)
				if err != nil {
					return storeError("list notes", err)
				}
				if flags.jsonMode {
					if notes == nil {
						notes = []*types.Note{}
					}
					return writeJSON(s.out, notes)
				}

				names, err := s.typeNames()
				if err != nil {
					return err
				}
				tw := newTable(s.out, "ID", "TYPE", "FRONT", "TAGS")
				for _, n := range notes {
					row(tw, n.NoteID, names[n.NoteTypeID], n.Front(), joinTags(n.Tags))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "only notes of this note type")
	cmd.Flags().StringVar(&deckName, "deck", "", "only notes in this deck")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of notes (0 = all)")
	return cmd
}

func newNoteShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <note-id>",
		Short: "Show one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				n, err := s.coll.GetNote(args[0])
				if err != nil {
					return storeError(fmt.Sprintf("note %s", args[0]), err)
				}
				if flags.jsonMode {
					return writeJSON(s.out, n)
				}

				nt, err := s.coll.GetNoteType(n.NoteTypeID)
				if err != nil {
					return storeError("note type", err)
				}
				deckName := n.DeckID
				if d, err := s.coll.GetDeck(n.DeckID); err == nil {
					deckName = d.Name
				}

				tw := newTable(s.out, "ID:", n.NoteID)
				row(tw, "Type:", nt.Name)
				row(tw, "Deck:", deckName)
				row(tw, "Tags:", joinTags(n.Tags))
				for i, v := range n.Fields {
					name := fmt.Sprintf("Field %d", i)
					if i < len(nt.FieldNames) {
						name = nt.FieldNames[i]
					}
					row(tw, name+":", v)
				}
				return tw.Flush()
			})
		},
	}
}

// typeNames maps note type IDs to names.
func (s *session) typeNames() (map[string]string, error) {
	all, err := s.coll.ListNoteTypes()
	if err != nil {
		return nil, storeError("list note types", err)
	}
	names := make(map[string]string, len(all))
	for _, nt := range all {
		names[nt.NoteTypeID] = nt.Name
	}
	return names, nil
}
