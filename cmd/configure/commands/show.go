package commands

import (
	"encoding/json"
	"fmt"

	"github.com/benvon/origin-guard/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewShowCmd creates the show command
func NewShowCmd(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved origin policy",
		Long:  "Print the CORS policy mode, allowed origins and built-in allow rules the server would use.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, policy, err := loadPolicy(*configPath)
			if err != nil {
				return err
			}
			view := models.NewCorsPolicy(policy)
			out := cmd.OutOrStdout()

			switch output {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(view); err != nil {
					return fmt.Errorf("failed to encode policy: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			default:
				return fmt.Errorf("unsupported output format %q (use yaml or json)", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	return cmd
}
