// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package project

import (
	"path/filepath"
	"strings"

	"github.com/platform-engineering-labs/strata/pkg/document"
)

// Variables returns the merged variable set for a deployment context.
// Three documents are layered, later ones overriding earlier ones:
//
//	s-variables-common.json
//	s-variables-<stage>.json
//	s-variables-<stage><region>.json   (region with dashes stripped)
//
// Missing documents are empty layers, not errors. The stage and region
// themselves are always present as variables.
func (c *Context) Variables(stage, region string) (document.Doc, error) {
	merged := document.Doc{}

	layers := []string{
		"s-variables-common.json",
		"s-variables-" + stage + ".json",
		"s-variables-" + stage + strings.ReplaceAll(region, "-", "") + ".json",
	}

	for _, name := range layers {
		path := filepath.Join(c.VariablesDir(), name)
		if !document.Exists(path) {
			continue
		}

		doc, err := document.ReadJSON(path)
		if err != nil {
			return nil, err
		}

		for k, v := range doc {
			merged[k] = v
		}
	}

	merged["stage"] = stage
	merged["region"] = region

	return merged, nil
}
