// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"testing"

	"github.com/anvil-build/anvil/internal/testutil"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()

	p := NewProvider()
	if p == nil {
		t.Fatal("NewProvider() returned nil")
	}
	if _, ok := p.(*fileProvider); !ok {
		t.Errorf("NewProvider() = %T, want *fileProvider", p)
	}
}

func TestProvider_Load_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("expected default color scheme, got %s", cfg.UI.ColorScheme)
	}
}

func TestProvider_Load_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, t.TempDir(), "settings.yaml", "ui:\n  verbose: true\n")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if !cfg.UI.Verbose {
		t.Error("Verbose should come from the explicit file")
	}
}

func TestProvider_Load_PropagatesFailure(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: "/nonexistent/config.yaml"})
	if err == nil {
		t.Fatal("Load() should fail for a missing explicit file")
	}
}
