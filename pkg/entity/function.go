// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package entity

import (
	"context"
	"path/filepath"

	"github.com/platform-engineering-labs/strata/internal/populate"
	"github.com/platform-engineering-labs/strata/internal/util"
	"github.com/platform-engineering-labs/strata/pkg/document"
	"github.com/platform-engineering-labs/strata/pkg/project"
)

// FunctionConfig is the identity a Function is constructed with.
// All three names are required.
type FunctionConfig struct {
	Component string
	Module    string
	Function  string
}

// Function is a leaf node of the configuration tree. It follows the
// same lifecycle protocol as Module, without children.
type Function struct {
	ctx *project.Context

	component string
	module    string
	function  string
	path      string
	dir       string

	doc document.Doc
}

// NewFunction creates an empty function bound to a project context and
// an identity, with descriptor defaults applied.
func NewFunction(ctx *project.Context, cfg FunctionConfig) (*Function, error) {
	if cfg.Component == "" || cfg.Module == "" || cfg.Function == "" {
		return nil, &ConfigError{Reason: "function requires a component, a module and a function name"}
	}

	f := &Function{ctx: ctx}
	f.applyIdentity(cfg.Component, cfg.Module, cfg.Function)
	f.doc = defaultFunctionDescriptor(cfg.Function)

	return f, nil
}

func defaultFunctionDescriptor(name string) document.Doc {
	if name == "" {
		name = util.ShortID(6)
	}

	return document.Doc{
		KeyName:      name,
		KeyHandler:   "handler.handler",
		KeyRuntime:   DefaultRuntime,
		KeyCustom:    document.Doc{},
		KeyEndpoints: []any{},
		KeyEvents:    []any{},
	}
}

func (f *Function) applyIdentity(component, module, function string) {
	f.component = component
	f.module = module
	f.function = function
	f.path = project.BuildIdentity(component, module, function)
	if f.ctx.HasRoot() {
		f.dir = f.ctx.DirFor(component, module, function)
	}
}

// Reconfigure re-derives the canonical path and, when a project root is
// known, the absolute directory. An empty config is a no-op.
func (f *Function) Reconfigure(cfg FunctionConfig) error {
	if cfg.Component == "" && cfg.Module == "" && cfg.Function == "" {
		return nil
	}

	component, module, function := f.component, f.module, f.function
	if cfg.Component != "" {
		component = cfg.Component
	}
	if cfg.Module != "" {
		module = cfg.Module
	}
	if cfg.Function != "" {
		function = cfg.Function
	}

	f.applyIdentity(component, module, function)

	return nil
}

// Name returns the function name of the identity.
func (f *Function) Name() string {
	return f.function
}

// Path returns the canonical slash-joined identity of this node.
func (f *Function) Path() string {
	return f.path
}

// Dir returns the absolute node directory, or "" when the project root
// is unknown.
func (f *Function) Dir() string {
	return f.dir
}

func (f *Function) descriptorPath() string {
	return filepath.Join(f.dir, FunctionDescriptorFile)
}

// Load reads the descriptor document from disk and merges it onto the
// in-memory state.
func (f *Function) Load(_ context.Context) error {
	if !f.ctx.HasRoot() {
		return &ConfigError{Reason: "no project path set"}
	}

	if !document.Exists(f.descriptorPath()) {
		return &ConfigError{Reason: "function not found at " + f.descriptorPath()}
	}

	doc, err := document.ReadJSON(f.descriptorPath())
	if err != nil {
		return err
	}

	checkVersion(f.path, doc)
	mergeDescriptor(f.doc, doc)

	return nil
}

// Set shallow-merges a literal document onto the in-memory state,
// replacing nested objects wholesale.
func (f *Function) Set(data map[string]any) error {
	incoming := document.DeepCopy(data)

	checkVersion(f.path, incoming)
	mergeDescriptor(f.doc, incoming)

	return nil
}

// Get returns a deep, fully independent snapshot of the function.
func (f *Function) Get() document.Doc {
	return document.DeepCopy(f.doc)
}

// GetPopulated returns a snapshot with all template and variable
// references resolved against the deployment context.
func (f *Function) GetPopulated(_ context.Context, opts PopulateOptions) (document.Doc, error) {
	if opts.Stage == "" || opts.Region == "" {
		return nil, &ConfigError{Reason: "populate requires both a stage and a region"}
	}

	if !f.ctx.HasRoot() {
		return nil, &ConfigError{Reason: "no project path set"}
	}

	templates, err := f.GetTemplates()
	if err != nil {
		return nil, err
	}

	return populate.Populate(f.ctx, f.Get(), templates, opts.Stage, opts.Region)
}

// GetTemplates returns the node-local templates document, or an empty
// map when the document does not exist.
func (f *Function) GetTemplates() (document.Doc, error) {
	return readTemplates(f.dir)
}

// Save persists the in-memory state to disk, scaffolding the node
// directory on first save.
func (f *Function) Save(_ context.Context, _ SaveOptions) error {
	if !f.ctx.HasRoot() {
		return &ConfigError{Reason: "no project path set"}
	}

	if !document.Exists(f.descriptorPath()) {
		if err := f.Create(); err != nil {
			return err
		}
	}

	return document.WriteJSON(f.descriptorPath(), f.Get())
}

// Create scaffolds the node directory and an empty templates document.
// It fails when the directory already exists.
func (f *Function) Create() error {
	if !f.ctx.HasRoot() {
		return &ConfigError{Reason: "no project path set"}
	}

	return scaffold(f.path, f.dir)
}
