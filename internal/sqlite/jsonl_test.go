// Tests for JSONL persistence in the SQLite backend.
package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

func TestJSONLFilesCreatedOnAttach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	for _, spec := range tableSpecs {
		info, err := os.Stat(filepath.Join(tmpDir, spec.file))
		if err != nil {
			t.Errorf("expected %s to be created: %v", spec.file, err)
			continue
		}
		if info.Size() != 0 {
			t.Errorf("expected %s to be empty, got %d bytes", spec.file, info.Size())
		}
	}
}

func TestJSONLMalformedLinesSkipped(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, filepath.Join(tmpDir, "note_types.jsonl"),
		`{"note_type_id":"nt-1","name":"English Yaryna","field_names":["Front","Back"],"default_deck_id":"","created_at":"2025-01-15T10:00:00Z"}`+"\n")
	writeFile(t, filepath.Join(tmpDir, "notes.jsonl"),
		`{"note_id":"n-1","note_type_id":"nt-1","fields":["cat","кіт"],"tags":[],"created_at":"2025-01-15T10:00:00Z","updated_at":"2025-01-15T10:00:00Z"}
{invalid json here

{"note_id":"n-2","note_type_id":"nt-1","fields":["dog","пес"],"tags":["noun"],"created_at":"2025-01-15T11:00:00Z","updated_at":"2025-01-15T11:00:00Z","future_field":42}
`)

	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	notes, err := b.ListNotes(types.NoteFilter{})
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes (malformed line skipped), got %d", len(notes))
	}
	if notes[1].Front() != "dog" || notes[1].Tags[0] != "noun" {
		t.Errorf("unexpected second note: %+v", notes[1])
	}
}

func TestJSONLNotPrettyPrinted(t *testing.T) {
	b, tmpDir := setupBackend(t)

	if _, err := b.AddNoteType("English Yaryna", []string{"Front", "Back"}); err != nil {
		t.Fatalf("AddNoteType failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "note_types.jsonl"))
	if err != nil {
		t.Fatalf("reading note_types.jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	var rec noteTypeJSON
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line is not a JSON record: %v", err)
	}
	if rec.Name != "English Yaryna" || len(rec.FieldNames) != 2 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestWriteJSONLAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.jsonl")

	records := []json.RawMessage{
		json.RawMessage(`{"key":"value1"}`),
		json.RawMessage(`{"key":"value2"}`),
	}
	if err := writeJSONL(path, records); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}

	got, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(got) != 2 || string(got[1]) != `{"key":"value2"}` {
		t.Errorf("unexpected records: %s", got)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestReadJSONLMissingFile(t *testing.T) {
	got, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
