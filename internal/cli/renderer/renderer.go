// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package renderer turns loaded tree nodes into terminal output: a
// gtree view of the node hierarchy and a tablewriter summary of the
// child functions.
package renderer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ddddddO/gtree"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/platform-engineering-labs/strata/internal/cli/display"
	"github.com/platform-engineering-labs/strata/pkg/entity"
)

// RenderModuleTree renders a module and its functions as a tree rooted
// at the module's canonical path.
func RenderModuleTree(m *entity.Module) (string, error) {
	doc := m.Get()

	root := gtree.NewRoot(display.LightBlue(m.Path()))
	root.Add(display.Grey("runtime: ") + docString(doc, entity.KeyRuntime))
	root.Add(display.Grey("version: ") + docString(doc, entity.KeyVersion))

	functions := m.Functions()
	for _, name := range sortedKeys(functions) {
		fnDoc := functions[name].Get()
		node := root.Add(display.Green(name))
		if handler := docString(fnDoc, entity.KeyHandler); handler != "" {
			node.Add(display.Grey("handler: ") + handler)
		}
		if endpoints, ok := fnDoc[entity.KeyEndpoints].([]any); ok && len(endpoints) > 0 {
			node.Add(display.Grey(fmt.Sprintf("endpoints: %d", len(endpoints))))
		}
	}

	var buf strings.Builder
	if err := gtree.OutputProgrammably(&buf, root); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// RenderFunctionSummary renders the child functions of a module as a
// table, sorted by name.
func RenderFunctionSummary(m *entity.Module) (string, error) {
	functions := m.Functions()
	if len(functions) == 0 {
		return display.Grey("No functions\n"), nil
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})))

	table.Header(display.LightBlue("Function"), "Runtime", "Handler", "Endpoints")

	var data [][]string
	for _, name := range sortedKeys(functions) {
		doc := functions[name].Get()

		endpoints := 0
		if eps, ok := doc[entity.KeyEndpoints].([]any); ok {
			endpoints = len(eps)
		}

		data = append(data, []string{
			name,
			docString(doc, entity.KeyRuntime),
			docString(doc, entity.KeyHandler),
			fmt.Sprintf("%d", endpoints),
		})
	}

	if err := table.Bulk(data); err != nil {
		return "", err
	}

	if err := table.Render(); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func sortedKeys(functions map[string]*entity.Function) []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func docString(doc map[string]any, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}

	return ""
}
