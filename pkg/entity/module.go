// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package entity

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/platform-engineering-labs/strata/internal/populate"
	"github.com/platform-engineering-labs/strata/internal/util"
	"github.com/platform-engineering-labs/strata/pkg/document"
	"github.com/platform-engineering-labs/strata/pkg/project"
)

// ModuleConfig is the identity a Module is constructed with. Both names
// are required; they are either both present or both absent.
type ModuleConfig struct {
	Component string
	Module    string
}

// PopulateOptions select the deployment context placeholders are
// resolved against. Both fields are required.
type PopulateOptions struct {
	Stage  string
	Region string
}

// SaveOptions control persistence. Deep cascades the save to every
// child function, sequentially, before the module document is written.
type SaveOptions struct {
	Deep bool
}

// Module is one aggregate node of the configuration tree. It owns its
// descriptor document and zero or more Function children. A single
// logical caller drives each instance; operations on the same instance
// are not safe to run concurrently with each other.
type Module struct {
	ctx *project.Context

	component string
	module    string
	path      string // canonical component/module identity
	dir       string // absolute directory, "" until a project root is known

	doc       document.Doc // descriptor fields, never holds live children
	functions map[string]*Function
}

// NewModule creates an empty module bound to a project context and an
// identity, with descriptor defaults applied.
func NewModule(ctx *project.Context, cfg ModuleConfig) (*Module, error) {
	if cfg.Component == "" || cfg.Module == "" {
		return nil, &ConfigError{Reason: "module requires both a component name and a module name"}
	}

	m := &Module{
		ctx:       ctx,
		functions: map[string]*Function{},
	}

	m.applyIdentity(cfg.Component, cfg.Module)
	m.doc = defaultModuleDescriptor(cfg.Module)

	return m, nil
}

func defaultModuleDescriptor(name string) document.Doc {
	if name == "" {
		name = util.ShortID(6)
	}

	return document.Doc{
		KeyName:           name,
		KeyVersion:        DefaultVersion,
		KeyRuntime:        DefaultRuntime,
		KeyCustom:         document.Doc{},
		KeyCloudFormation: document.Doc{},
	}
}

func (m *Module) applyIdentity(component, module string) {
	m.component = component
	m.module = module
	m.path = project.BuildIdentity(component, module)
	if m.ctx.HasRoot() {
		m.dir = m.ctx.DirFor(component, module)
	}
}

// Reconfigure re-derives the canonical path and, when a project root is
// known, the absolute directory. An empty config is a no-op.
func (m *Module) Reconfigure(cfg ModuleConfig) error {
	if cfg.Component == "" && cfg.Module == "" {
		return nil
	}

	component, module := m.component, m.module
	if cfg.Component != "" {
		component = cfg.Component
	}
	if cfg.Module != "" {
		module = cfg.Module
	}

	m.applyIdentity(component, module)

	return nil
}

// Component returns the owning component name.
func (m *Module) Component() string {
	return m.component
}

// Name returns the module name of the identity.
func (m *Module) Name() string {
	return m.module
}

// Path returns the canonical slash-joined identity of this node.
func (m *Module) Path() string {
	return m.path
}

// Dir returns the absolute node directory, or "" when the project root
// is unknown.
func (m *Module) Dir() string {
	return m.dir
}

// Functions returns the live child entities keyed by function name.
func (m *Module) Functions() map[string]*Function {
	return m.functions
}

func (m *Module) descriptorPath() string {
	return filepath.Join(m.dir, ModuleDescriptorFile)
}

// Load reads the descriptor document from disk and rebuilds the child
// set from the module directory: every entry containing a function
// descriptor becomes a loaded Function. Children load concurrently; any
// child failure aborts the whole load, no partial tree is kept.
func (m *Module) Load(ctx context.Context) error {
	if !m.ctx.HasRoot() {
		return &ConfigError{Reason: "no project path set"}
	}

	if !document.Exists(m.descriptorPath()) {
		return &ConfigError{Reason: "module not found at " + m.descriptorPath()}
	}

	doc, err := document.ReadJSON(m.descriptorPath())
	if err != nil {
		return err
	}

	// Children are rebuilt from disk, never trusted from the document.
	delete(doc, KeyFunctions)

	entries, err := document.ListDirectory(m.dir)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	loaded := map[string]*Function{}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for _, entry := range entries {
		if !document.Exists(filepath.Join(m.dir, entry, FunctionDescriptorFile)) {
			continue
		}

		name := entry
		p.Go(func(ctx context.Context) error {
			fn, err := NewFunction(m.ctx, FunctionConfig{
				Component: m.component,
				Module:    m.module,
				Function:  name,
			})
			if err != nil {
				return err
			}

			if err := fn.Load(ctx); err != nil {
				return err
			}

			mu.Lock()
			loaded[name] = fn
			mu.Unlock()

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return err
	}

	checkVersion(m.path, doc)
	mergeDescriptor(m.doc, doc)
	m.functions = loaded

	return nil
}

// Set mutates the in-memory state from a literal document. Entries
// under "functions" must be literal descriptors; live entity instances
// are rejected with ErrLiveEntity. Remaining keys shallow-merge onto
// the descriptor, replacing nested objects wholesale.
func (m *Module) Set(data map[string]any) error {
	if raw, ok := data[KeyFunctions]; ok && raw != nil {
		literals, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("functions of %s: %w", m.path, ErrLiveEntity)
		}

		for name, value := range literals {
			if _, live := value.(*Function); live {
				return fmt.Errorf("function %q of %s: %w", name, m.path, ErrLiveEntity)
			}

			literal, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("function %q of %s: descriptor must be an object", name, m.path)
			}

			fn, err := NewFunction(m.ctx, FunctionConfig{
				Component: m.component,
				Module:    m.module,
				Function:  name,
			})
			if err != nil {
				return err
			}

			if err := fn.Set(literal); err != nil {
				return err
			}

			m.functions[name] = fn
		}
	}

	incoming := document.DeepCopy(data)
	delete(incoming, KeyFunctions)

	checkVersion(m.path, incoming)
	mergeDescriptor(m.doc, incoming)

	return nil
}

// Get returns a deep, fully independent snapshot of the module with
// every child replaced by its own snapshot. Internal state (context
// reference, derived paths) is not part of the document.
func (m *Module) Get() document.Doc {
	out := document.DeepCopy(m.doc)

	functions := document.Doc{}
	for name, fn := range m.functions {
		functions[name] = fn.Get()
	}
	out[KeyFunctions] = functions

	return out
}

// GetPopulated returns a snapshot with all template and variable
// references resolved against the deployment context. Children populate
// concurrently and are all joined before the result is returned; the
// assembled "functions" map always holds the populated form of every
// child.
func (m *Module) GetPopulated(ctx context.Context, opts PopulateOptions) (document.Doc, error) {
	if opts.Stage == "" || opts.Region == "" {
		return nil, &ConfigError{Reason: "populate requires both a stage and a region"}
	}

	if !m.ctx.HasRoot() {
		return nil, &ConfigError{Reason: "no project path set"}
	}

	templates, err := m.GetTemplates()
	if err != nil {
		return nil, err
	}

	populated, err := populate.Populate(m.ctx, document.DeepCopy(m.doc), templates, opts.Stage, opts.Region)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	functions := document.Doc{}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for name, fn := range m.functions {
		p.Go(func(ctx context.Context) error {
			doc, err := fn.GetPopulated(ctx, opts)
			if err != nil {
				return err
			}

			mu.Lock()
			functions[name] = doc
			mu.Unlock()

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	populated[KeyFunctions] = functions

	return populated, nil
}

// GetTemplates returns the node-local templates document, or an empty
// map when the document does not exist.
func (m *Module) GetTemplates() (document.Doc, error) {
	return readTemplates(m.dir)
}

// Save persists the in-memory state to disk, scaffolding the node
// directory on first save. With Deep set, children save first, one at a
// time; the first child failure aborts the save. The module document
// never carries the "functions" key - children persist themselves.
func (m *Module) Save(ctx context.Context, opts SaveOptions) error {
	if !m.ctx.HasRoot() {
		return &ConfigError{Reason: "no project path set"}
	}

	if !document.Exists(m.descriptorPath()) {
		if err := m.Create(); err != nil {
			return err
		}
	}

	if opts.Deep {
		names := make([]string, 0, len(m.functions))
		for name := range m.functions {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if err := m.functions[name].Save(ctx, opts); err != nil {
				return err
			}
		}
	}

	out := m.Get()
	delete(out, KeyFunctions)

	return document.WriteJSON(m.descriptorPath(), out)
}

// Create scaffolds the node directory and an empty templates document.
// It fails when the directory already exists.
func (m *Module) Create() error {
	if !m.ctx.HasRoot() {
		return &ConfigError{Reason: "no project path set"}
	}

	return scaffold(m.path, m.dir)
}
