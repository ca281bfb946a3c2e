// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package entity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/strata/pkg/document"
	"github.com/platform-engineering-labs/strata/pkg/project"
)

func testContext(t *testing.T) *project.Context {
	t.Helper()
	return project.NewContext("testproject", t.TempDir())
}

func writeDoc(t *testing.T, path string, doc document.Doc) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, document.WriteJSON(path, doc))
}

func TestNewModule_RequiresIdentity(t *testing.T) {
	ctx := testContext(t)

	t.Run("missing module name", func(t *testing.T) {
		_, err := NewModule(ctx, ModuleConfig{Component: "billing"})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("missing component name", func(t *testing.T) {
		_, err := NewModule(ctx, ModuleConfig{Module: "collector"})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("both names present", func(t *testing.T) {
		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)
		assert.Equal(t, "billing/collector", m.Path())
		assert.Equal(t, filepath.Join(ctx.Root(), "billing", "collector"), m.Dir())
	})
}

func TestNewModule_DefaultsOnly(t *testing.T) {
	m, err := NewModule(testContext(t), ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)

	doc := m.Get()
	assert.Equal(t, document.Doc{
		KeyName:           "collector",
		KeyVersion:        DefaultVersion,
		KeyRuntime:        DefaultRuntime,
		KeyCustom:         document.Doc{},
		KeyCloudFormation: document.Doc{},
		KeyFunctions:      document.Doc{},
	}, doc)
}

func TestNewModule_WithoutProjectRoot(t *testing.T) {
	ctx := project.NewContext("testproject", "")

	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)
	assert.Empty(t, m.Dir())

	t.Run("load fails fast", func(t *testing.T) {
		err := m.Load(context.Background())
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "no project path set", cfgErr.Reason)
	})

	t.Run("save fails fast", func(t *testing.T) {
		err := m.Save(context.Background(), SaveOptions{})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("populate fails fast", func(t *testing.T) {
		_, err := m.GetPopulated(context.Background(), PopulateOptions{Stage: "dev", Region: "us-east-1"})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestModule_Reconfigure(t *testing.T) {
	ctx := testContext(t)
	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)

	t.Run("empty config is a no-op", func(t *testing.T) {
		require.NoError(t, m.Reconfigure(ModuleConfig{}))
		assert.Equal(t, "billing/collector", m.Path())
	})

	t.Run("re-derives paths", func(t *testing.T) {
		require.NoError(t, m.Reconfigure(ModuleConfig{Module: "ledger"}))
		assert.Equal(t, "billing/ledger", m.Path())
		assert.Equal(t, filepath.Join(ctx.Root(), "billing", "ledger"), m.Dir())
	})
}

func TestModule_GetIsPureProjection(t *testing.T) {
	m, err := NewModule(testContext(t), ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)
	require.NoError(t, m.Set(map[string]any{
		KeyCustom:    map[string]any{"retries": float64(3)},
		KeyFunctions: map[string]any{"handler": map[string]any{KeyHandler: "handler.run"}},
	}))

	first := m.Get()
	first[KeyName] = "mutated"
	first[KeyCustom].(map[string]any)["retries"] = float64(99)
	first[KeyFunctions].(map[string]any)["handler"].(map[string]any)[KeyHandler] = "mutated"

	second := m.Get()
	assert.Equal(t, "collector", second[KeyName])
	assert.Equal(t, float64(3), second[KeyCustom].(map[string]any)["retries"])
	assert.Equal(t, "handler.run", second[KeyFunctions].(map[string]any)["handler"].(map[string]any)[KeyHandler])
}

func TestModule_SetRejectsLiveEntities(t *testing.T) {
	ctx := testContext(t)
	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)

	live, err := NewFunction(ctx, FunctionConfig{Component: "billing", Module: "collector", Function: "handler"})
	require.NoError(t, err)

	t.Run("live instance as map value", func(t *testing.T) {
		err := m.Set(map[string]any{
			KeyFunctions: map[string]any{"handler": live},
		})
		require.ErrorIs(t, err, ErrLiveEntity)
	})

	t.Run("live instance map", func(t *testing.T) {
		err := m.Set(map[string]any{
			KeyFunctions: map[string]*Function{"handler": live},
		})
		require.ErrorIs(t, err, ErrLiveEntity)
	})

	t.Run("literal documents pass", func(t *testing.T) {
		err := m.Set(map[string]any{
			KeyFunctions: map[string]any{"handler": map[string]any{KeyHandler: "handler.run"}},
		})
		require.NoError(t, err)
		require.Contains(t, m.Functions(), "handler")
		assert.Equal(t, "handler.run", m.Functions()["handler"].Get()[KeyHandler])
	})
}

func TestModule_SetShallowMerge(t *testing.T) {
	m, err := NewModule(testContext(t), ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)

	require.NoError(t, m.Set(map[string]any{
		KeyCustom: map[string]any{"a": "1", "b": "2"},
	}))

	// Nested objects replace wholesale, they do not deep-merge.
	require.NoError(t, m.Set(map[string]any{
		KeyCustom:  map[string]any{"b": "3"},
		"pipeline": "default",
	}))

	doc := m.Get()
	assert.Equal(t, document.Doc{"b": "3"}, doc[KeyCustom])
	assert.Equal(t, "default", doc["pipeline"])
	assert.Equal(t, DefaultVersion, doc[KeyVersion])
}

func TestModule_Load(t *testing.T) {
	t.Run("module not found", func(t *testing.T) {
		m, err := NewModule(testContext(t), ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)

		err = m.Load(context.Background())
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "module not found")
	})

	t.Run("zero function directories", func(t *testing.T) {
		ctx := testContext(t)
		writeDoc(t, filepath.Join(ctx.Root(), "billing", "collector", ModuleDescriptorFile), document.Doc{
			KeyName: "m1",
		})

		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)
		require.NoError(t, m.Load(context.Background()))

		assert.Empty(t, m.Functions())
		assert.Equal(t, "m1", m.Get()[KeyName])
	})

	t.Run("one child function directory", func(t *testing.T) {
		ctx := testContext(t)
		dir := filepath.Join(ctx.Root(), "billing", "collector")
		writeDoc(t, filepath.Join(dir, ModuleDescriptorFile), document.Doc{
			KeyName: "m1", KeyFunctions: document.Doc{},
		})
		writeDoc(t, filepath.Join(dir, "fn1", FunctionDescriptorFile), document.Doc{
			KeyName: "fn1", KeyHandler: "fn1/handler.run",
		})
		// A directory without a function descriptor is not a child.
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0755))

		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)
		require.NoError(t, m.Load(context.Background()))

		require.Len(t, m.Functions(), 1)
		require.Contains(t, m.Functions(), "fn1")
		assert.Equal(t, "fn1/handler.run", m.Functions()["fn1"].Get()[KeyHandler])
	})

	t.Run("descriptor functions key is not trusted", func(t *testing.T) {
		ctx := testContext(t)
		writeDoc(t, filepath.Join(ctx.Root(), "billing", "collector", ModuleDescriptorFile), document.Doc{
			KeyName:      "m1",
			KeyFunctions: document.Doc{"ghost": document.Doc{}},
		})

		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)
		require.NoError(t, m.Load(context.Background()))

		assert.Empty(t, m.Functions())
		assert.Equal(t, document.Doc{}, m.Get()[KeyFunctions])
	})

	t.Run("child failure aborts the load", func(t *testing.T) {
		ctx := testContext(t)
		dir := filepath.Join(ctx.Root(), "billing", "collector")
		writeDoc(t, filepath.Join(dir, ModuleDescriptorFile), document.Doc{KeyName: "m1"})

		require.NoError(t, os.MkdirAll(filepath.Join(dir, "fn1"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "fn1", FunctionDescriptorFile), []byte("{broken"), 0644))

		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)
		require.Error(t, m.Load(context.Background()))
	})
}

func TestModule_SaveLoadRoundTrip(t *testing.T) {
	ctx := testContext(t)

	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)
	require.NoError(t, m.Set(map[string]any{
		KeyCustom: map[string]any{"retries": float64(3)},
		"policy":  map[string]any{"effect": "Allow"},
		KeyFunctions: map[string]any{
			"fn1": map[string]any{KeyHandler: "fn1.run"},
			"fn2": map[string]any{KeyHandler: "fn2.run"},
		},
	}))
	require.NoError(t, m.Save(context.Background(), SaveOptions{Deep: true}))

	reloaded, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)
	require.NoError(t, reloaded.Load(context.Background()))

	want := m.Get()
	got := reloaded.Get()

	assert.Equal(t, want, got)
	require.Len(t, reloaded.Functions(), 2)
	assert.Contains(t, reloaded.Functions(), "fn1")
	assert.Contains(t, reloaded.Functions(), "fn2")
}

func TestModule_SaveDeepScenario(t *testing.T) {
	ctx := testContext(t)

	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)
	require.NoError(t, m.Set(map[string]any{
		KeyFunctions: map[string]any{
			"fn1": map[string]any{},
			"fn2": map[string]any{},
		},
	}))
	require.NoError(t, m.Save(context.Background(), SaveOptions{Deep: true}))

	dir := filepath.Join(ctx.Root(), "billing", "collector")
	assert.True(t, document.Exists(filepath.Join(dir, ModuleDescriptorFile)))
	assert.True(t, document.Exists(filepath.Join(dir, "fn1", FunctionDescriptorFile)))
	assert.True(t, document.Exists(filepath.Join(dir, "fn2", FunctionDescriptorFile)))

	// Children persist themselves; the module document never carries them.
	saved, err := document.ReadJSON(filepath.Join(dir, ModuleDescriptorFile))
	require.NoError(t, err)
	assert.NotContains(t, saved, KeyFunctions)
}

func TestModule_SaveDeepAbortsOnChildFailure(t *testing.T) {
	ctx := testContext(t)

	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)
	require.NoError(t, m.Set(map[string]any{
		KeyFunctions: map[string]any{
			"fn1": map[string]any{},
			"fn2": map[string]any{},
		},
	}))
	require.NoError(t, m.Save(context.Background(), SaveOptions{}))

	// A file squatting on fn1's directory path makes its scaffold fail.
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "fn1"), []byte("squatter"), 0644))

	err = m.Save(context.Background(), SaveOptions{Deep: true})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	// Children save in sorted order and the first failure aborts, so the
	// later sibling was never written.
	assert.False(t, document.Exists(filepath.Join(m.Dir(), "fn2", FunctionDescriptorFile)))
}

func TestModule_MalformedVersionIsWarnOnly(t *testing.T) {
	t.Run("set keeps the value", func(t *testing.T) {
		m, err := NewModule(testContext(t), ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)

		require.NoError(t, m.Set(map[string]any{KeyVersion: "not-semver"}))
		assert.Equal(t, "not-semver", m.Get()[KeyVersion])
	})

	t.Run("load keeps the value", func(t *testing.T) {
		ctx := testContext(t)
		writeDoc(t, filepath.Join(ctx.Root(), "billing", "collector", ModuleDescriptorFile), document.Doc{
			KeyName:    "m1",
			KeyVersion: "v1.banana",
		})

		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)
		require.NoError(t, m.Load(context.Background()))
		assert.Equal(t, "v1.banana", m.Get()[KeyVersion])
	})
}

func TestModule_Create(t *testing.T) {
	ctx := testContext(t)

	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)

	require.NoError(t, m.Create())
	assert.True(t, document.Exists(filepath.Join(m.Dir(), TemplatesFile)))

	t.Run("fails when the directory exists", func(t *testing.T) {
		err := m.Create()
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestModule_GetTemplates(t *testing.T) {
	ctx := testContext(t)
	m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
	require.NoError(t, err)

	t.Run("absent file is an empty result", func(t *testing.T) {
		templates, err := m.GetTemplates()
		require.NoError(t, err)
		assert.Equal(t, document.Doc{}, templates)
	})

	t.Run("present file is parsed", func(t *testing.T) {
		writeDoc(t, filepath.Join(m.Dir(), TemplatesFile), document.Doc{"retry": document.Doc{"max": float64(3)}})

		templates, err := m.GetTemplates()
		require.NoError(t, err)
		assert.Equal(t, document.Doc{"retry": document.Doc{"max": float64(3)}}, templates)
	})

	t.Run("malformed file propagates the error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), TemplatesFile), []byte("{broken"), 0644))

		_, err := m.GetTemplates()
		require.Error(t, err)
	})
}

func TestModule_GetPopulated(t *testing.T) {
	newPopulatedFixture := func(t *testing.T) (*project.Context, *Module) {
		t.Helper()
		ctx := testContext(t)

		writeDoc(t, filepath.Join(ctx.VariablesDir(), "s-variables-common.json"), document.Doc{"queue": "main"})
		writeDoc(t, filepath.Join(ctx.VariablesDir(), "s-variables-dev.json"), document.Doc{"queue": "dev-queue"})

		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)
		require.NoError(t, m.Set(map[string]any{
			KeyCustom: map[string]any{
				"queue":    "${queue}",
				"endpoint": "https://${region}.example.com",
			},
			KeyFunctions: map[string]any{
				"fn1": map[string]any{KeyCustom: map[string]any{"stage": "${stage}"}},
				"fn2": map[string]any{KeyCustom: map[string]any{"queue": "${queue}"}},
			},
		}))

		return ctx, m
	}

	t.Run("requires stage and region", func(t *testing.T) {
		_, m := newPopulatedFixture(t)

		var cfgErr *ConfigError
		_, err := m.GetPopulated(context.Background(), PopulateOptions{Region: "us-east-1"})
		require.ErrorAs(t, err, &cfgErr)

		_, err = m.GetPopulated(context.Background(), PopulateOptions{Stage: "dev"})
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("resolves variables and joins every child", func(t *testing.T) {
		_, m := newPopulatedFixture(t)

		populated, err := m.GetPopulated(context.Background(), PopulateOptions{Stage: "dev", Region: "us-east-1"})
		require.NoError(t, err)

		custom := populated[KeyCustom].(map[string]any)
		assert.Equal(t, "dev-queue", custom["queue"])
		assert.Equal(t, "https://us-east-1.example.com", custom["endpoint"])

		functions := populated[KeyFunctions].(document.Doc)
		require.Len(t, functions, 2)
		fn1 := functions["fn1"].(document.Doc)
		assert.Equal(t, "dev", fn1[KeyCustom].(map[string]any)["stage"])
		fn2 := functions["fn2"].(document.Doc)
		assert.Equal(t, "dev-queue", fn2[KeyCustom].(map[string]any)["queue"])
	})

	t.Run("does not mutate the live entity", func(t *testing.T) {
		_, m := newPopulatedFixture(t)

		_, err := m.GetPopulated(context.Background(), PopulateOptions{Stage: "dev", Region: "us-east-1"})
		require.NoError(t, err)

		assert.Equal(t, "${queue}", m.Get()[KeyCustom].(map[string]any)["queue"])
	})

	t.Run("resolves template references before variables", func(t *testing.T) {
		ctx := testContext(t)
		m, err := NewModule(ctx, ModuleConfig{Component: "billing", Module: "collector"})
		require.NoError(t, err)

		writeDoc(t, filepath.Join(m.Dir(), TemplatesFile), document.Doc{
			"bucketName": "uploads-${stage}",
		})
		require.NoError(t, m.Set(map[string]any{
			KeyCustom: map[string]any{"bucket": "$${bucketName}"},
		}))

		populated, err := m.GetPopulated(context.Background(), PopulateOptions{Stage: "dev", Region: "us-east-1"})
		require.NoError(t, err)
		assert.Equal(t, "uploads-dev", populated[KeyCustom].(map[string]any)["bucket"])
	})
}

func TestModule_ErrLiveEntityIsTypeErrorClass(t *testing.T) {
	// The sentinel must survive wrapping so callers can classify it.
	wrapped := errors.Join(errors.New("outer"), ErrLiveEntity)
	assert.True(t, errors.Is(wrapped, ErrLiveEntity))
}
