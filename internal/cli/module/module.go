// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package module

import (
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/platform-engineering-labs/strata/internal/cli/cmd"
	"github.com/platform-engineering-labs/strata/internal/cli/config"
	"github.com/platform-engineering-labs/strata/internal/cli/display"
	"github.com/platform-engineering-labs/strata/internal/cli/renderer"
	"github.com/platform-engineering-labs/strata/internal/logging"
	"github.com/platform-engineering-labs/strata/pkg/entity"
)

func ModuleCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "module",
		Short: "Work with modules of a strata project",
		Annotations: map[string]string{
			"type":     "Tree",
			"examples": "{{.Name}} {{.Command}} create billing/collector",
		},
		SilenceErrors: true,
	}

	command.AddCommand(ModuleCreateCmd())
	command.AddCommand(ModuleShowCmd())
	command.AddCommand(ModulePopulateCmd())
	command.AddCommand(ModuleSaveCmd())

	command.SetUsageTemplate(cmd.SimpleCmdUsageTemplate)

	return command
}

func setupLogging(command *cobra.Command, _ []string) {
	level := logging.NoLoggingLevel
	if verbose, _ := command.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	logging.SetupClientLogging(fmt.Sprintf("%s/log/client.log", config.Config.DataDirectory()), level)

	if id, err := config.Config.ClientID(); err == nil {
		slog.SetDefault(slog.Default().With("clientId", id))
	}
}

func ModuleCreateCmd() *cobra.Command {
	command := &cobra.Command{
		Use:    "create <component>/<module>",
		Short:  "Scaffold a module and persist its descriptor",
		Args:   cobra.ExactArgs(1),
		PreRun: setupLogging,
		RunE: func(command *cobra.Command, args []string) error {
			cfg, err := cmd.ParseModuleIdentity(args[0])
			if err != nil {
				return err
			}

			ctx, err := cmd.ProjectContext(command)
			if err != nil {
				return err
			}

			m, err := entity.NewModule(ctx, cfg)
			if err != nil {
				return err
			}

			if runtime, _ := command.Flags().GetString("runtime"); runtime != "" {
				if err := m.Set(map[string]any{entity.KeyRuntime: runtime}); err != nil {
					return err
				}
			}

			if err := m.Save(command.Context(), entity.SaveOptions{}); err != nil {
				return err
			}

			slog.Info("Module created", "path", m.Path(), "dir", m.Dir())
			display.Success("Created module " + m.Path())

			return nil
		},
		Annotations: map[string]string{
			"examples": "{{.Name}} module {{.Command}} billing/collector --runtime nodejs",
		},
		SilenceErrors: true,
	}

	command.Flags().String("runtime", "", "Runtime recorded in the module descriptor")
	command.Flags().String("project-root", "", "Project root directory (default: working directory)")

	return command
}

func ModuleShowCmd() *cobra.Command {
	command := &cobra.Command{
		Use:    "show <component>/<module>",
		Short:  "Load a module and display its tree of functions",
		Args:   cobra.ExactArgs(1),
		PreRun: setupLogging,
		RunE: func(command *cobra.Command, args []string) error {
			m, err := loadModule(command, args[0])
			if err != nil {
				return err
			}

			tree, err := renderer.RenderModuleTree(m)
			if err != nil {
				return err
			}
			fmt.Print(tree)

			summary, err := renderer.RenderFunctionSummary(m)
			if err != nil {
				return err
			}
			fmt.Print(summary)

			return nil
		},
		Annotations: map[string]string{
			"examples": "{{.Name}} module {{.Command}} billing/collector",
		},
		SilenceErrors: true,
	}

	command.Flags().String("project-root", "", "Project root directory (default: working directory)")

	return command
}

func ModulePopulateCmd() *cobra.Command {
	command := &cobra.Command{
		Use:    "populate <component>/<module>",
		Short:  "Resolve a module against a stage and region and print the result",
		Args:   cobra.ExactArgs(1),
		PreRun: setupLogging,
		RunE: func(command *cobra.Command, args []string) error {
			m, err := loadModule(command, args[0])
			if err != nil {
				return err
			}

			stage, _ := command.Flags().GetString("stage")
			region, _ := command.Flags().GetString("region")

			populated, err := m.GetPopulated(command.Context(), entity.PopulateOptions{
				Stage:  stage,
				Region: region,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(populated, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			return nil
		},
		Annotations: map[string]string{
			"examples": "{{.Name}} module {{.Command}} billing/collector --stage dev --region us-east-1",
		},
		SilenceErrors: true,
	}

	command.Flags().String("stage", "", "Deployment stage to resolve against")
	command.Flags().String("region", "", "Deployment region to resolve against")
	command.Flags().String("project-root", "", "Project root directory (default: working directory)")
	_ = command.MarkFlagRequired("stage")
	_ = command.MarkFlagRequired("region")

	return command
}

func ModuleSaveCmd() *cobra.Command {
	command := &cobra.Command{
		Use:    "save <component>/<module>",
		Short:  "Load a module and write it back in normalized form",
		Args:   cobra.ExactArgs(1),
		PreRun: setupLogging,
		RunE: func(command *cobra.Command, args []string) error {
			m, err := loadModule(command, args[0])
			if err != nil {
				return err
			}

			deep, _ := command.Flags().GetBool("deep")
			if err := m.Save(command.Context(), entity.SaveOptions{Deep: deep}); err != nil {
				return err
			}

			display.Success("Saved module " + m.Path())

			return nil
		},
		Annotations: map[string]string{
			"examples": "{{.Name}} module {{.Command}} billing/collector --deep",
		},
		SilenceErrors: true,
	}

	command.Flags().Bool("deep", false, "Also save every function of the module")
	command.Flags().String("project-root", "", "Project root directory (default: working directory)")

	return command
}

func loadModule(command *cobra.Command, identity string) (*entity.Module, error) {
	cfg, err := cmd.ParseModuleIdentity(identity)
	if err != nil {
		return nil, err
	}

	ctx, err := cmd.ProjectContext(command)
	if err != nil {
		return nil, err
	}

	m, err := entity.NewModule(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := m.Load(command.Context()); err != nil {
		return nil, err
	}

	return m, nil
}
