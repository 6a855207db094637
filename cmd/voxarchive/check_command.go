package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxarchive/internal/config"
	"voxarchive/internal/deps"
	"voxarchive/internal/stage"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check external binaries and credentials needed by each stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checks := readinessChecks(cfg)

			rows := make([][]string, 0, len(checks))
			for _, check := range checks {
				state := "ready"
				if !check.Ready {
					state = "missing"
				}
				rows = append(rows, []string{check.Name, yesNo(!check.Optional), state, check.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transcription backend: %s\n", cfg.Transcription.Backend)
			fmt.Fprintln(out, renderTable([]string{"Check", "Required", "Status", "Detail"}, rows, nil))
			if !stage.AllReady(checks) {
				return fmt.Errorf("required checks failed; see the table above")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}

func readinessChecks(cfg *config.Config) []stage.Health {
	var checks []stage.Health
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		check := stage.Unhealthy(status.Name+" binary", status.Detail)
		if status.Available {
			check = stage.Healthy(status.Name + " binary")
			check.Detail = status.Description
		}
		check.Optional = status.Optional
		checks = append(checks, check)
	}

	local := cfg.Transcription.Backend == config.BackendLocal
	credentials := []struct {
		name     string
		required bool
		read     func() (string, error)
	}{
		{"Hugging Face token (local transcription)", local, cfg.HuggingFaceToken},
		{"AssemblyAI key (cloud transcription)", !local, cfg.AssemblyAIKey},
		{"Gemini key (classification)", true, cfg.LLMAPIKey},
	}
	for _, cred := range credentials {
		_, err := cred.read()
		check := stage.FromError(cred.name, err)
		if err == nil {
			check.Detail = "configured"
		}
		check.Optional = !cred.required
		checks = append(checks, check)
	}
	return checks
}
