package filestore

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestStore_SaveReadDelete(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	name, err := s.Save("billa.txt", strings.NewReader("Re-Nr: 1\r\nSUMME EUR 1,00\n"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Ext(name) != ".txt" || name == "billa.txt" {
		t.Fatalf("unexpected stored name %q", name)
	}

	lines, err := s.ReadLines(name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(lines) != 2 || lines[0] != "Re-Nr: 1" || lines[1] != "SUMME EUR 1,00" {
		t.Fatalf("unexpected lines: %q", lines)
	}

	if err := s.Delete(name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(name); err != nil {
		t.Fatalf("deleting a missing file must succeed: %v", err)
	}
	if _, err := s.ReadLines(name); err == nil {
		t.Fatalf("expected error reading deleted file")
	}
}

func TestStore_RejectsEscapingNames(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, name := range []string{"../etc/passwd", "/etc/passwd", ""} {
		if _, err := s.Get(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
