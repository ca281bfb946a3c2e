// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s-module.json")

	doc := Doc{
		"name":    "collector",
		"version": "0.0.1",
		"custom":  Doc{"retries": float64(3)},
		"tags":    []any{"a", "b"},
	}
	require.NoError(t, WriteJSON(path, doc))

	t.Run("round trip", func(t *testing.T) {
		got, err := ReadJSON(path)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("formatted with trailing newline", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(string(raw), "}\n"))
		assert.Contains(t, string(raw), "  \"name\"")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})

	t.Run("malformed document", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(broken, []byte("{broken"), 0644))

		_, err := ReadJSON(broken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "absent")))
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fn1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s-module.json"), []byte("{}"), 0644))

	names, err := ListDirectory(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fn1", "s-module.json"}, names)

	_, err = ListDirectory(filepath.Join(dir, "absent"))
	require.Error(t, err)
}

func TestDeepCopy(t *testing.T) {
	t.Run("nil in, nil out", func(t *testing.T) {
		assert.Nil(t, DeepCopy(nil))
	})

	t.Run("copies are independent at every depth", func(t *testing.T) {
		original := Doc{
			"custom": Doc{"retries": float64(3)},
			"tags":   []any{"a"},
		}

		copied := DeepCopy(original)
		copied["custom"].(map[string]any)["retries"] = float64(99)
		copied["tags"].([]any)[0] = "mutated"

		assert.Equal(t, float64(3), original["custom"].(Doc)["retries"])
		assert.Equal(t, "a", original["tags"].([]any)[0])
	})

	t.Run("non-JSON value panics", func(t *testing.T) {
		assert.Panics(t, func() {
			DeepCopy(Doc{"ch": make(chan int)})
		})
	})
}
