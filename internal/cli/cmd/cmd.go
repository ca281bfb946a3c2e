// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/platform-engineering-labs/strata/internal/cli/display"
	"github.com/platform-engineering-labs/strata/internal/util"
	"github.com/platform-engineering-labs/strata/pkg/entity"
	"github.com/platform-engineering-labs/strata/pkg/project"
)

var RootCmdUsageTemplate = display.Grey("Usage: ") + display.Green("{{.CommandPath}} [OPTIONS]{{if .HasAvailableSubCommands}} [COMMAND]{{end}}\n") +
	"{{if .HasAvailableSubCommands}}\n" + display.Gold("Commands:") + "{{$types := typeMap .Commands}}" +
	"{{$first := true}}{{range $type, $cmds := $types}}" +
	"{{if $first}}{{$first = false}}{{else}}\n{{end}}\n  " + display.Gold("{{$type}}:") +
	"{{range $cmd := $cmds}}\n    " + display.Green("{{rpad $cmd.Name $cmd.NamePadding}}") + "     {{$cmd.Short}}" +
	"{{if (index $cmd.Annotations \"examples\")}}\n                   " +
	display.Grey("  {{formatExamples (index $cmd.Annotations \"examples\") $cmd}}") + "{{end}}" +
	"{{end}}{{end}}\n{{end}}" +
	"{{if .HasAvailableLocalFlags}}\n" + display.Gold("Options:\n") +
	"{{range .LocalFlags | optionsUsage}}{{.}}\n{{end}}" +
	"{{end}}" +
	display.Links("Docs", "cli/{{.Name}}") +
	"\n"

var SimpleCmdUsageTemplate = display.Grey("Usage: ") + display.Green("{{.CommandPath}}{{if .HasAvailableLocalFlags}} [OPTIONS]{{end}}{{if .HasAvailableSubCommands}} [COMMAND]{{end}}") +
	display.Green("{{if index .Annotations \"args\"}} {{index .Annotations \"args\"}}{{end}}") + "\n" +
	"{{if .HasAvailableSubCommands}}\n" + display.Gold("Commands:") +
	"{{range $cmd := .Commands}}\n  " + display.Green("{{rpad $cmd.Name $cmd.NamePadding}}") + "       {{$cmd.Short}}" +
	"{{if (index $cmd.Annotations \"examples\")}}\n                   " +
	display.Grey("  {{formatExamples (index $cmd.Annotations \"examples\") $cmd}}") + "{{end}}" +
	"{{end}}\n{{end}}" +
	"{{if .HasAvailableLocalFlags}}\n" + display.Gold("Options:\n") +
	"{{range .LocalFlags | optionsUsage}}{{.}}\n{{end}}" +
	"{{end}}" +
	display.Links("Docs", "cli/{{.Name}}") +
	"\n"

// ProjectContext builds the project context a command operates in from
// the --project-root flag, falling back to the working directory.
func ProjectContext(cmd *cobra.Command) (*project.Context, error) {
	root, _ := cmd.Flags().GetString("project-root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	abs, err := filepath.Abs(util.ExpandHomePath(root))
	if err != nil {
		return nil, err
	}

	return project.NewContext(filepath.Base(abs), abs), nil
}

// ParseModuleIdentity parses a "component/module" argument.
func ParseModuleIdentity(arg string) (entity.ModuleConfig, error) {
	parts := project.ParseIdentity(arg)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return entity.ModuleConfig{}, FlagErrorf("expected a module identity of the form <component>/<module>, got %q", arg)
	}

	return entity.ModuleConfig{Component: parts[0], Module: parts[1]}, nil
}

// ParseFunctionIdentity parses a "component/module/function" argument.
func ParseFunctionIdentity(arg string) (entity.FunctionConfig, error) {
	parts := project.ParseIdentity(arg)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return entity.FunctionConfig{}, FlagErrorf("expected a function identity of the form <component>/<module>/<function>, got %q", arg)
	}

	return entity.FunctionConfig{Component: parts[0], Module: parts[1], Function: parts[2]}, nil
}
