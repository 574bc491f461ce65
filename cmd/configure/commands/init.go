package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/benvon/origin-guard/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var keyComments = map[string]string{
	"cors_policy_mode":  `"localapps" allows app://. and allow_origin; "all" allows every origin. Env: CORS_POLICY_MODE`,
	"allow_origin":      "Extra origins for localapps mode, e.g. https://example.com. Env: ALLOW_ORIGIN",
	"server_port":       "Env: SERVER_PORT",
	"server_debug_mode": "Env: SERVER_DEBUG_MODE",
	"upstream_url":      "Engine to proxy unrouted paths to. Env: UPSTREAM_URL",
	"rate_limit":        `Per client IP, e.g. "100-M". Empty disables. Env: RATE_LIMIT`,
	"redis_url":         "Shares rate limit counters between instances. Env: REDIS_URL",
	"max_request_size":  "Body limit in bytes for every request, proxied engine uploads included. Raise it for large payloads. Env: MAX_REQUEST_SIZE",
	"request_timeout":   "Deadline for every request, proxied engine calls included. Raise it for long synthesis jobs. Env: REQUEST_TIMEOUT",
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var (
		path        string
		force       bool
		mode        string
		allowOrigin []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long:  "Write a commented YAML config file with default values, validated before it is written.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if mode != "" {
				cfg.CorsPolicyMode = mode
			}
			cfg.AllowOrigin = allowOrigin
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.ValidateOrigins(); err != nil {
				return err
			}

			data, err := renderConfig(cfg)
			if err != nil {
				return err
			}

			flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
			if force {
				flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			}
			f, err := os.OpenFile(path, flag, 0o644)
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			if _, err := f.Write(data); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to write config file: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "origin-guard.yaml", "File to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().StringVar(&mode, "cors-policy-mode", "", `CORS policy mode: "all" or "localapps"`)
	cmd.Flags().StringArrayVar(&allowOrigin, "allow-origin", nil, "Allowed origin to include (repeatable)")
	return cmd
}

func renderConfig(cfg *config.Config) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if comment, ok := keyComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# Origin Guard configuration. Environment variables override these values.\n\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
