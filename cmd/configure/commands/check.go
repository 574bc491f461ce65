package commands

import (
	"errors"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/spf13/cobra"
)

// ErrOriginRejected is returned by check when any origin would get a 403.
var ErrOriginRejected = errors.New("one or more origins rejected")

// NewCheckCmd creates the check command
func NewCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check ORIGIN...",
		Short: "Check origins against the policy",
		Long:  "Evaluate each origin with the server's allow rules and print the verdict and deciding rule.",
		Example: `  origin-guard-configure check app://. http://localhost:5173 https://example.com
  CORS_POLICY_MODE=all origin-guard-configure check https://example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, policy, err := loadPolicy(*configPath)
			if err != nil {
				return err
			}
			return checkOrigins(cmd, policy, args)
		},
	}
}

func checkOrigins(cmd *cobra.Command, policy originpolicy.Evaluator, origins []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ORIGIN\tRESULT\tRULE")

	rejected := 0
	for _, origin := range origins {
		d := evaluate(policy, origin)
		result := "allowed"
		if !d.Allowed {
			result = "rejected"
			rejected++
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", origin, result, d.Rule)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if rejected > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOriginRejected, rejected, len(origins))
	}
	return nil
}

func evaluate(policy originpolicy.Evaluator, origin string) originpolicy.Decision {
	return policy.Evaluate(http.Header{"Origin": []string{origin}})
}
