// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package populate resolves deployment-context placeholders inside node
// documents. Two placeholder forms exist:
//
//	$${key}  - template reference, resolved from the node's templates document
//	${key}   - variable reference, resolved from the project variable set
//	           for the requested stage and region
//
// Templates are resolved first, then variables, so a template value may
// itself carry variable references. Unknown references are left in place
// and logged; a half-authored document must stay inspectable.
package populate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/platform-engineering-labs/strata/pkg/document"
	"github.com/platform-engineering-labs/strata/pkg/project"
)

var (
	templateRefPattern = regexp.MustCompile(`\$\$\{\s*([^{}\s]+)\s*\}`)
	variableRefPattern = regexp.MustCompile(`\$\{\s*([^{}\s]+)\s*\}`)
)

// Populate returns a deep copy of doc with all template and variable
// references resolved against (stage, region). The input document and
// the templates document are never mutated.
func Populate(ctx *project.Context, doc document.Doc, templates document.Doc, stage, region string) (document.Doc, error) {
	vars, err := ctx.Variables(stage, region)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document for population: %w", err)
	}

	out := string(raw)

	// Template pass first: a template value may introduce new variable
	// references, which the second pass then resolves.
	out, err = resolvePass(out, templates, resolveTemplates)
	if err != nil {
		return nil, err
	}

	out, err = resolvePass(out, vars, resolveVariables)
	if err != nil {
		return nil, err
	}

	var populated document.Doc
	if err := json.Unmarshal([]byte(out), &populated); err != nil {
		return nil, fmt.Errorf("failed to parse populated document: %w", err)
	}

	return populated, nil
}

// resolvePass rewrites every string leaf of the serialized document
// through resolve. A leaf that resolves to a non-string keeps the
// referenced value's JSON type.
func resolvePass(serialized string, refs document.Doc, resolve func(s string, refs document.Doc) (any, bool)) (string, error) {
	type rewrite struct {
		path  string
		value any
	}

	var rewrites []rewrite
	walkStrings(gjson.Parse(serialized), "", func(path, s string) {
		if value, changed := resolve(s, refs); changed {
			rewrites = append(rewrites, rewrite{path: path, value: value})
		}
	})

	var err error
	for _, rw := range rewrites {
		serialized, err = sjson.Set(serialized, rw.path, rw.value)
		if err != nil {
			return "", fmt.Errorf("failed to set populated value at %s: %w", rw.path, err)
		}
	}

	return serialized, nil
}

func walkStrings(result gjson.Result, currentPath string, visit func(path, s string)) {
	if result.IsObject() || result.IsArray() {
		result.ForEach(func(key, value gjson.Result) bool {
			walkStrings(value, buildPath(currentPath, key.String()), visit)
			return true
		})
		return
	}

	if result.Type == gjson.String {
		visit(currentPath, result.String())
	}
}

func buildPath(currentPath, key string) string {
	escaped := escapeKey(key)
	if currentPath == "" {
		return escaped
	}

	return currentPath + "." + escaped
}

// escapeKey guards document keys against gjson path syntax.
func escapeKey(key string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return replacer.Replace(key)
}

// resolveTemplates resolves $${key} references from the node templates.
func resolveTemplates(s string, templates document.Doc) (any, bool) {
	if match := templateRefPattern.FindStringSubmatch(s); match != nil && match[0] == s {
		value, ok := templates[match[1]]
		if !ok {
			slog.Warn("Unknown template reference left unresolved", "ref", match[1])
			return nil, false
		}
		return value, true
	}

	changed := false
	replaced := templateRefPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := templateRefPattern.FindStringSubmatch(m)[1]
		value, ok := templates[key]
		if !ok {
			slog.Warn("Unknown template reference left unresolved", "ref", key)
			return m
		}

		changed = true
		return stringify(value)
	})

	if !changed {
		return nil, false
	}

	return replaced, true
}

// resolveVariables resolves ${key} references from the variable set.
// Matches that are actually template references ($${key}) are skipped.
func resolveVariables(s string, vars document.Doc) (any, bool) {
	matches := variableRefPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return nil, false
	}

	// Whole-string reference: preserve the referenced value's type.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		key := s[matches[0][2]:matches[0][3]]
		value, ok := vars[key]
		if !ok {
			slog.Warn("Unknown variable reference left unresolved", "ref", key)
			return nil, false
		}
		return value, true
	}

	changed := false
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && s[start-1] == '$' {
			// Part of an unresolved $${...} template reference.
			continue
		}

		key := s[m[2]:m[3]]
		value, ok := vars[key]
		if !ok {
			slog.Warn("Unknown variable reference left unresolved", "ref", key)
			continue
		}

		b.WriteString(s[last:start])
		b.WriteString(stringify(value))
		last = end
		changed = true
	}

	if !changed {
		return nil, false
	}

	b.WriteString(s[last:])
	return b.String(), true
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
