package schema

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"cvsync/internal/errors"
)

func TestSaveAndLoadMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")

	mapping := map[string]string{
		"Candidate Name": "Full Name",
		"Email":          "Email Address",
		"Phone":          "Contact Mobile",
	}

	if err := SaveMapping(mapping, path); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}

	loaded, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if !reflect.DeepEqual(loaded, mapping) {
		t.Errorf("round trip mismatch: got %v, want %v", loaded, mapping)
	}
}

func TestSaveMappingCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "mapping.json")

	if err := SaveMapping(map[string]string{"Email": "Email Address"}, path); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("mapping file missing after save: %v", err)
	}
}

func TestSaveMappingOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")

	if err := SaveMapping(map[string]string{"Email": "Old Column"}, path); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := SaveMapping(map[string]string{"Email": "New Column"}, path); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if loaded["Email"] != "New Column" {
		t.Errorf("loaded %q, want overwrite to win", loaded["Email"])
	}
}

func TestLoadMappingNotFound(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != errors.ErrCodeMappingNotFound {
		t.Errorf("code = %q, want %q", appErr.Code, errors.ErrCodeMappingNotFound)
	}
	if appErr.Type != errors.ErrorTypeIO {
		t.Errorf("type = %q, want %q", appErr.Type, errors.ErrorTypeIO)
	}
}

func TestLoadMappingCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte(`{"Email": "Email Address"`), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadMapping(path)
	if err == nil {
		t.Fatal("expected error for corrupt file")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != errors.ErrCodeMappingCorrupt {
		t.Errorf("code = %q, want %q", appErr.Code, errors.ErrCodeMappingCorrupt)
	}
	if appErr.Unwrap() == nil {
		t.Error("corrupt error must carry the decode error as cause")
	}
}
