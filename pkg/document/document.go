// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package document is the filesystem document store for strata nodes.
// Every descriptor in a configuration tree is a JSON object on disk;
// this package owns reading, writing and listing them.
package document

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// Doc is an open-ended JSON object. Reserved keys are defined by the
// entity that owns the document; unknown keys pass through untouched.
type Doc = map[string]any

// Exists reports whether a file or directory exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadJSON reads and parses a JSON object document.
// Malformed JSON is an error; this layer never repairs documents.
func ReadJSON(path string) (Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document at %s: %w", path, err)
	}

	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document at %s: %w", path, err)
	}

	return doc, nil
}

// WriteJSON writes a document as formatted JSON with a trailing newline,
// so saved descriptors diff cleanly under version control.
func WriteJSON(path string, doc Doc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document for %s: %w", path, err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write document at %s: %w", path, err)
	}

	return nil
}

// ListDirectory returns the entry names of a directory.
func ListDirectory(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", path, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names, nil
}

// DeepCopy returns a fully independent copy of a document. The copy goes
// through the JSON codec, so values must be JSON-representable - which
// holds for every document this store reads.
func DeepCopy(doc Doc) Doc {
	if doc == nil {
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		// Documents originate from JSON; a non-representable value is a
		// programmer error upstream.
		panic(fmt.Sprintf("document: deep copy of non-JSON value: %v", err))
	}

	var out Doc
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("document: deep copy round-trip failed: %v", err))
	}

	return out
}
