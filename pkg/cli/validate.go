package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/mocket/pkg/cli/internal/output"
	"github.com/getmockd/mocket/pkg/message"
)

// ValidateOutput represents JSON output format
type ValidateOutput struct {
	Files         []string       `json:"files"`
	Setups        int            `json:"setups"`
	PerChannel    map[string]int `json:"perChannel"`
	WebSocketPath string         `json:"websocketPath,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var (
		configs    []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Load and compile mock files without serving",
		Example: `  mocket validate mocks.yaml
  mocket validate --config 'mocks/**/*.yaml' --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := append(append([]string{}, configs...), args...)
			if len(patterns) == 0 {
				return fmt.Errorf("no mock files given (use --config or pass paths)")
			}

			loaded, err := loadSetups(patterns)
			if err != nil {
				return err
			}

			out := ValidateOutput{
				Setups:        loaded.Result.Setups,
				PerChannel:    make(map[string]int, len(message.Channels)),
				WebSocketPath: loaded.Result.WebSocketPath,
			}
			for _, src := range loaded.Sources {
				out.Files = append(out.Files, src.Path)
			}
			for _, ch := range message.Channels {
				out.PerChannel[string(ch)] = loaded.Registries.Get(ch).Len()
			}

			if jsonOutput {
				return output.JSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "OK: %d setups from %d files\n", out.Setups, len(out.Files))
			tw := output.Table(w)
			for _, ch := range message.Channels {
				fmt.Fprintf(tw, "  %s\t%d\n", ch, out.PerChannel[string(ch)])
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if out.WebSocketPath != "" {
				fmt.Fprintf(w, "WebSocket path: %s\n", out.WebSocketPath)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&configs, "config", "c", nil, "Mock file or glob (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
