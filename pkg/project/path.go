// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package project

import (
	"path/filepath"
	"strings"
)

// BuildIdentity joins identity parts into the canonical slash-separated
// path of a node (e.g. "billing/collector/handler"). The canonical path
// identifies the node within the tree and is independent of the
// filesystem location.
func BuildIdentity(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, "/")
}

// ParseIdentity splits a canonical path back into its parts.
func ParseIdentity(identity string) []string {
	if identity == "" {
		return nil
	}

	return strings.Split(identity, "/")
}

// DirFor resolves the absolute directory of a node given the project
// root and the node's identity parts.
func (c *Context) DirFor(parts ...string) string {
	return filepath.Join(append([]string{c.root}, parts...)...)
}
