package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/benvon/origin-guard/internal/config"
	"github.com/benvon/origin-guard/internal/models"
	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "origin-guard.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckOrigins(t *testing.T) {
	t.Parallel()

	policy, err := originpolicy.New(originpolicy.ModeLocalApps, []string{"https://foo.example"}, nil)
	if err != nil {
		t.Fatalf("originpolicy.New() error = %v", err)
	}

	tests := []struct {
		name      string
		origins   []string
		wantErr   bool
		wantLines []string
	}{
		{
			name:    "all allowed",
			origins: []string{"app://.", "https://foo.example", "http://localhost:5173", "chrome-extension://abc"},
			wantLines: []string{
				"app://.",
				"allowlisted",
				"localhost",
				"browser_extension",
			},
		},
		{
			name:      "one rejected",
			origins:   []string{"app://.", "https://bar.example"},
			wantErr:   true,
			wantLines: []string{"https://bar.example", "rejected", "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := &cobra.Command{}
			var out bytes.Buffer
			cmd.SetOut(&out)

			err := checkOrigins(cmd, policy, tt.origins)
			if tt.wantErr != (err != nil) {
				t.Fatalf("checkOrigins() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrOriginRejected) {
				t.Errorf("Expected ErrOriginRejected, got %v", err)
			}
			if !strings.HasPrefix(out.String(), "ORIGIN") {
				t.Errorf("Expected header row, got %q", out.String())
			}
			for _, want := range tt.wantLines {
				if !strings.Contains(out.String(), want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestCheckCmd(t *testing.T) {
	path := writeConfig(t, "cors_policy_mode: localapps\nallow_origin: [\"https://foo.example\"]\n")

	out, err := execute(t, "--config", path, "check", "https://foo.example", "http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("check error = %v\n%s", err, out)
	}
	if strings.Contains(out, "rejected") {
		t.Errorf("Expected every origin allowed, got:\n%s", out)
	}

	out, err = execute(t, "--config", path, "check", "https://bar.example")
	if !errors.Is(err, ErrOriginRejected) {
		t.Errorf("Expected ErrOriginRejected, got %v\n%s", err, out)
	}

	if _, err := execute(t, "--config", path, "check"); err == nil {
		t.Error("Expected error when no origins are given")
	}
}

func TestShowCmd(t *testing.T) {
	path := writeConfig(t, "cors_policy_mode: localapps\nallow_origin: [\"https://foo.example\"]\n")

	out, err := execute(t, "--config", path, "show", "-o", "json")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	var view models.CorsPolicy
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("Failed to decode show output %q: %v", out, err)
	}
	if view.Mode != "localapps" {
		t.Errorf("Expected mode localapps, got %q", view.Mode)
	}
	if want := []string{"app://.", "https://foo.example"}; !slices.Equal(view.AllowedOrigins, want) {
		t.Errorf("Expected allowed origins %v, got %v", want, view.AllowedOrigins)
	}

	out, err = execute(t, "--config", path, "show")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(out, "cors_policy_mode: localapps") {
		t.Errorf("Expected YAML output, got:\n%s", out)
	}

	if _, err := execute(t, "--config", path, "show", "-o", "xml"); err == nil {
		t.Error("Expected error for unsupported output format")
	}
}

func TestShowCmd_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "cors_policy_mode: public\n")

	_, err := execute(t, "--config", path, "show")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInitCmd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "origin-guard.yaml")

	cmd := NewInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", path, "--allow-origin", "https://foo.example"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written config: %v", err)
	}
	for _, want := range []string{"Env: CORS_POLICY_MODE", "proxied engine uploads included", "proxied engine calls included"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected comment %q in written config:\n%s", want, data)
		}
	}

	cfg := config.Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config does not validate: %v", err)
	}
	if cfg.CorsPolicyMode != "localapps" || !slices.Equal(cfg.AllowOrigin, []string{"https://foo.example"}) {
		t.Errorf("Unexpected written config: %+v", cfg)
	}
	if cfg.RequestTimeout != config.Default().RequestTimeout {
		t.Errorf("Expected default request timeout to round-trip, got %v", cfg.RequestTimeout)
	}

	again := NewInitCmd()
	again.SetOut(&bytes.Buffer{})
	again.SetArgs([]string{"-o", path})
	if err := again.Execute(); err == nil {
		t.Error("Expected error when the file already exists")
	}

	forced := NewInitCmd()
	forced.SetOut(&bytes.Buffer{})
	forced.SetArgs([]string{"-o", path, "--force", "--cors-policy-mode", "all"})
	if err := forced.Execute(); err != nil {
		t.Fatalf("init --force error = %v", err)
	}
}

func TestInitCmd_RejectsInvalidValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "origin-guard.yaml")
	cmd := NewInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", path, "--allow-origin", "not an origin"})

	if err := cmd.Execute(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected no file to be written for an invalid config")
	}
}

func TestInitCmd_RejectsOriginWithPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "origin-guard.yaml")
	cmd := NewInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", path, "--allow-origin", "https://foo.example/"})

	if err := cmd.Execute(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestShowCmd_KeepsUnmatchableOrigin(t *testing.T) {
	path := writeConfig(t, "allow_origin: [\"https://foo.example/\"]\n")

	out, err := execute(t, "--config", path, "show", "-o", "json")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	var view models.CorsPolicy
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("Failed to decode show output %q: %v", out, err)
	}
	if want := []string{"app://.", "https://foo.example/"}; !slices.Equal(view.AllowedOrigins, want) {
		t.Errorf("Expected allowed origins %v, got %v", want, view.AllowedOrigins)
	}
}
