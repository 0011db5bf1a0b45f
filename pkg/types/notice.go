package types

import "fmt"

// NoticeKind classifies a user-visible notice.
type NoticeKind string

// Notice kinds emitted by the propagation engines.
const (
	NoticeNoSelection     NoticeKind = "no_selection"
	NoticeNotFound        NoticeKind = "not_found"
	NoticeNotInChain      NoticeKind = "not_in_chain"
	NoticeTerminalStage   NoticeKind = "terminal_stage"
	NoticeAlreadyCopied   NoticeKind = "already_copied"
	NoticeDeckCreated     NoticeKind = "deck_created"
	NoticeMissingNoteType NoticeKind = "missing_note_type"
	NoticeMissingDeck     NoticeKind = "missing_deck"
	NoticeUnmatched       NoticeKind = "unmatched"
	NoticeAmbiguous       NoticeKind = "ambiguous"
)

// Notice is a short, non-fatal message about a single note. Front carries the
// note's match-key field so the reader can identify it.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	NoteID  string     `json:"note_id,omitempty"`
	Front   string     `json:"front,omitempty"`
	Message string     `json:"message"`
}

// String returns the notice message.
func (n Notice) String() string {
	return n.Message
}

// Noticef builds a Notice with a formatted message.
func Noticef(kind NoticeKind, note *Note, format string, args ...any) Notice {
	n := Notice{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if note != nil {
		n.NoteID = note.NoteID
		n.Front = note.Front()
	}
	return n
}
