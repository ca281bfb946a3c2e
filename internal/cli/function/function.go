// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package function

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/platform-engineering-labs/strata/internal/cli/cmd"
	"github.com/platform-engineering-labs/strata/internal/cli/config"
	"github.com/platform-engineering-labs/strata/internal/cli/display"
	"github.com/platform-engineering-labs/strata/internal/logging"
	"github.com/platform-engineering-labs/strata/pkg/entity"
)

func FunctionCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "function",
		Short: "Work with functions of a strata module",
		Annotations: map[string]string{
			"type":     "Tree",
			"examples": "{{.Name}} {{.Command}} create billing/collector/handler",
		},
		SilenceErrors: true,
	}

	command.AddCommand(FunctionCreateCmd())

	command.SetUsageTemplate(cmd.SimpleCmdUsageTemplate)

	return command
}

func FunctionCreateCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "create <component>/<module>/<function>",
		Short: "Scaffold a function and persist its descriptor",
		Args:  cobra.ExactArgs(1),
		PreRun: func(command *cobra.Command, _ []string) {
			level := logging.NoLoggingLevel
			if verbose, _ := command.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}

			logging.SetupClientLogging(fmt.Sprintf("%s/log/client.log", config.Config.DataDirectory()), level)

			if id, err := config.Config.ClientID(); err == nil {
				slog.SetDefault(slog.Default().With("clientId", id))
			}
		},
		RunE: func(command *cobra.Command, args []string) error {
			cfg, err := cmd.ParseFunctionIdentity(args[0])
			if err != nil {
				return err
			}

			ctx, err := cmd.ProjectContext(command)
			if err != nil {
				return err
			}

			fn, err := entity.NewFunction(ctx, cfg)
			if err != nil {
				return err
			}

			if handler, _ := command.Flags().GetString("handler"); handler != "" {
				if err := fn.Set(map[string]any{entity.KeyHandler: handler}); err != nil {
					return err
				}
			}

			if err := fn.Save(command.Context(), entity.SaveOptions{}); err != nil {
				return err
			}

			slog.Info("Function created", "path", fn.Path(), "dir", fn.Dir())
			display.Success("Created function " + fn.Path())

			return nil
		},
		Annotations: map[string]string{
			"examples": "{{.Name}} function {{.Command}} billing/collector/handler --handler handler.run",
		},
		SilenceErrors: true,
	}

	command.Flags().String("handler", "", "Handler recorded in the function descriptor")
	command.Flags().String("project-root", "", "Project root directory (default: working directory)")

	return command
}
