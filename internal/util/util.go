// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/ksuid"
)

// NewID generates a unique ID via ksuid
func NewID() string {
	return ksuid.New().String()
}

// ShortID generates a short lowercase identifier, used as the
// last-resort default name for nodes created without one.
func ShortID(length int) string {
	id := strings.ToLower(ksuid.New().String())
	if length <= 0 || length >= len(id) {
		return id
	}

	return id[len(id)-length:]
}

func EnsureFileFolderHierarchy(path string) error {
	return EnsureFolderHierarchy(filepath.Dir(path))
}

func EnsureFolderHierarchy(path string) error {
	return os.MkdirAll(path, 0755)
}

func ExpandHomePath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("./", path[1:])
		}

		return filepath.Join(home, path[1:])
	}

	return path
}
