// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package project holds the shared context every tree node resolves
// against: the project root, identity/path derivation and the stage and
// region variable documents kept under the project meta directory.
package project

import (
	"path/filepath"
)

const (
	// MetaDirectory is the project-level directory for deployment metadata.
	MetaDirectory = "_meta"
	// VariablesDirectory holds the stage/region variable documents.
	VariablesDirectory = "variables"
)

// Context is the read-only project context passed into every entity
// constructor. Entities never read project state from ambient globals.
type Context struct {
	name string
	root string
}

// NewContext creates a project context. Root may be empty when the
// project location is not yet known; operations that need the
// filesystem must check HasRoot first.
func NewContext(name, root string) *Context {
	return &Context{name: name, root: root}
}

// Name returns the project name.
func (c *Context) Name() string {
	return c.name
}

// Root returns the absolute project root, or "" when unset.
func (c *Context) Root() string {
	return c.root
}

// HasRoot reports whether the project location is known.
func (c *Context) HasRoot() bool {
	return c.root != ""
}

// VariablesDir returns the directory holding variable documents.
func (c *Context) VariablesDir() string {
	return filepath.Join(c.root, MetaDirectory, VariablesDirectory)
}
