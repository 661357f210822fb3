package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cvsync/internal/errors"
)

// LoadMapping reads a flat internal-key to remote-field table from a JSON
// file. A missing file is reported as a not-found IO error; a file that
// exists but does not parse is reported as corrupt, with the decode error
// as cause.
func LoadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeMappingNotFound,
				fmt.Sprintf("Mapping file not found: %s", path), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read mapping file: %s", path), err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeMappingCorrupt,
			fmt.Sprintf("Mapping file is not valid JSON: %s", path), err)
	}
	return mapping, nil
}

// SaveMapping writes the mapping as indented JSON, creating parent
// directories as needed and overwriting any existing file. Keys serialize in
// sorted order so saved mappings diff cleanly.
func SaveMapping(mapping map[string]string, path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return errors.NewInternalError("MAPPING_ENCODE_FAILED",
			"Cannot encode mapping", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write mapping file: %s", path), err)
	}
	return nil
}
