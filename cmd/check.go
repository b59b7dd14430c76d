package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/medisimplify/pkg/llm"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the API key by sending a short prompt to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if llm.RequiresAPIKey(cfg.LLM.Provider) {
				if cfg.LLM.APIKey == "" {
					color.Red("ERROR: API key not found")
					return reportedError{errors.New("API key not found")}
				}
				fmt.Fprintf(out, "API key found: %s\n", llm.MaskKey(cfg.LLM.APIKey))
			}

			config := chatConfig(cfg)
			config.Model = cfg.LLM.CheckModel
			engine, err := llm.NewWithConfig(cmd.Context(), config)
			if err != nil {
				color.Red("ERROR: %v", err)
				return reportedError{err}
			}

			spinner := getSpinner(fmt.Sprintf("Testing %s...", config.Model))
			reply, err := engine.Ping(cmd.Context())
			spinner.Finish()
			if err != nil {
				color.Red("ERROR: %v", err)
				return reportedError{err}
			}

			color.Green("SUCCESS: %s responded", config.Model)
			fmt.Fprintf(out, "Response: %s\n", reply)
			return nil
		},
	}
}
