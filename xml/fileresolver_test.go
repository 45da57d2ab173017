package xml

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "frag.xml"), []byte("<frag/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	fr := &FileResolver{BaseDir: dir}
	data, err := fr.ResolveExternal("frag", "frag.xml", "")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<frag/>" {
		t.Errorf("got %q", data)
	}

	if _, err := fr.ResolveExternal("nope", "", ""); err == nil {
		t.Error("expected an error for a missing SYSTEM identifier")
	}
	if _, err := fr.ResolveExternal("gone", "missing.xml", ""); err == nil {
		t.Error("expected an error for a nonexistent file")
	}
}

// The core never dereferences external entities itself: referencing one
// is an error even with a resolver installed, and a caller that wants
// the bytes goes through the hook explicitly.
func TestExternalEntitiesNeverAutoResolved(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "e.txt"), []byte("boo"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewReaderString(`<!DOCTYPE r [<!ENTITY e SYSTEM "e.txt">]><r>&e;</r>`)
	r.SetExternalEntityResolver(&FileResolver{BaseDir: dir})
	_, err := drain(r)
	if err == nil {
		t.Fatal("expected UnknownEntity for an external reference")
	}
}
