// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package entity implements the node lifecycle shared by every level of
// a strata configuration tree: discover, load, merge, clone, populate,
// persist. A Module aggregates Functions; both follow the same protocol
// against their own descriptor document on disk.
package entity

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/masterminds/semver"

	"github.com/platform-engineering-labs/strata/pkg/document"
)

// Descriptor documents and the optional templates document per node
// directory. A directory entry is recognized as a child function iff it
// contains a function descriptor.
const (
	ModuleDescriptorFile   = "s-module.json"
	FunctionDescriptorFile = "s-function.json"
	TemplatesFile          = "s-templates.json"
)

// Reserved descriptor keys. Everything else passes through untouched.
const (
	KeyName           = "name"
	KeyVersion        = "version"
	KeyRuntime        = "runtime"
	KeyCustom         = "custom"
	KeyFunctions      = "functions"
	KeyCloudFormation = "cloudFormation"
	KeyHandler        = "handler"
	KeyEndpoints      = "endpoints"
	KeyEvents         = "events"
)

const (
	DefaultVersion = "0.0.1"
	// DefaultRuntime preserves the original platform default.
	DefaultRuntime = "nodejs"
)

// mergeDescriptor overlays an incoming document onto a descriptor:
// every present key overwrites the like-named field, nested objects are
// replaced wholesale, unknown keys pass through.
func mergeDescriptor(dst, incoming document.Doc) {
	for key, value := range incoming {
		dst[key] = value
	}
}

// checkVersion flags descriptor versions that are not valid semver.
// Lenient on purpose: a bad version never blocks the lifecycle.
func checkVersion(nodePath string, doc document.Doc) {
	version, ok := doc[KeyVersion].(string)
	if !ok || version == "" {
		return
	}

	if _, err := semver.NewVersion(version); err != nil {
		slog.Warn("Descriptor version is not valid semver", "node", nodePath, "version", version)
	}
}

// scaffold performs first-time creation of a node directory and its
// empty templates document. The directory must not exist yet; partial
// creation is not rolled back.
func scaffold(nodePath, dir string) error {
	if document.Exists(dir) {
		return &ConfigError{Reason: "cannot create " + nodePath + ": directory already exists at " + dir}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return document.WriteJSON(filepath.Join(dir, TemplatesFile), document.Doc{})
}

// readTemplates loads a node-local templates document, treating an
// absent file as a valid empty result.
func readTemplates(dir string) (document.Doc, error) {
	path := filepath.Join(dir, TemplatesFile)
	if dir == "" || !document.Exists(path) {
		return document.Doc{}, nil
	}

	return document.ReadJSON(path)
}
