// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anvil-build/anvil/internal/config"
	"github.com/anvil-build/anvil/pkg/buildfile"
)

func TestInitCommandCreatesStarterConfig(t *testing.T) {
	// Not parallel: commands mutate package-level flag vars.
	overrideConfigDir(t)

	dir := t.TempDir()
	app, stdout, stderr := newTestApp(t, Dependencies{})
	if err := runCommand(t, app, "init", "--dir", dir); err != nil {
		t.Fatalf("init returned error: %v\nstderr:\n%s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "Created") {
		t.Errorf("output missing creation notice:\n%s", out)
	}
	if !strings.Contains(out, "Next steps:") {
		t.Errorf("output missing next steps:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, buildfile.ConfigFileName))
	if err != nil {
		t.Fatalf("starter config not written: %v", err)
	}

	doc, err := buildfile.ParseRawBytes(data, "")
	if err != nil {
		t.Fatalf("starter config is not valid JSON: %v", err)
	}
	if got := buildfile.DetectSchema(doc); got != buildfile.SchemaCurrent {
		t.Errorf("starter schema = %s, want %s", got, buildfile.SchemaCurrent)
	}

	bf, err := buildfile.ParseBytes(data, "")
	if err != nil {
		t.Fatalf("starter config does not decode: %v", err)
	}
	if !bf.HasGroups() {
		t.Error("starter config has no project groups")
	}
}

func TestInitCommandRefusesExistingFile(t *testing.T) {
	// Not parallel: commands mutate package-level flag vars.
	overrideConfigDir(t)

	dir := t.TempDir()
	existing := filepath.Join(dir, buildfile.ConfigFileName)
	if err := os.WriteFile(existing, []byte(`{"custom": true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	app, _, _ := newTestApp(t, Dependencies{})
	err := runCommand(t, app, "init", "--dir", dir)
	if err == nil {
		t.Fatal("init over an existing file succeeded, want error")
	}
	if !strings.Contains(err.Error(), "already exists. Use --force to overwrite") {
		t.Errorf("error = %q, want overwrite hint", err)
	}

	data, readErr := os.ReadFile(existing)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(data) != `{"custom": true}` {
		t.Error("refused init still modified the file")
	}
}

func TestInitCommandForceOverwrites(t *testing.T) {
	// Not parallel: commands mutate package-level flag vars.
	overrideConfigDir(t)

	dir := t.TempDir()
	existing := filepath.Join(dir, buildfile.ConfigFileName)
	if err := os.WriteFile(existing, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	app, _, stderr := newTestApp(t, Dependencies{})
	if err := runCommand(t, app, "init", "--dir", dir, "--force"); err != nil {
		t.Fatalf("init --force returned error: %v\nstderr:\n%s", err, stderr.String())
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buildfile.ParseBytes(data, ""); err != nil {
		t.Errorf("forced init did not write a valid starter config: %v", err)
	}
}

func TestInitCommandHonorsBuildFileNameOverride(t *testing.T) {
	// Not parallel: commands mutate package-level flag vars.
	overrideConfigDir(t)

	dir := t.TempDir()
	provider := &stubConfigProvider{cfg: &config.Config{
		BuildFileName: "forge.json",
		UI:            config.UIConfig{ColorScheme: config.ColorSchemeAuto},
	}}

	app, _, stderr := newTestApp(t, Dependencies{Config: provider})
	if err := runCommand(t, app, "init", "--dir", dir); err != nil {
		t.Fatalf("init returned error: %v\nstderr:\n%s", err, stderr.String())
	}

	if _, err := os.Stat(filepath.Join(dir, "forge.json")); err != nil {
		t.Errorf("override file name not honored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, buildfile.ConfigFileName)); !os.IsNotExist(err) {
		t.Error("canonical file written despite build_file_name override")
	}
}
