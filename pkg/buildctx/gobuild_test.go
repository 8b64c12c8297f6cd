// SPDX-License-Identifier: MPL-2.0

package buildctx

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/anvil-build/anvil/internal/testutil"
	"github.com/anvil-build/anvil/pkg/buildfile"
)

const goModBody = "module example.com/anvil/native\n\ngo 1.25\n"

func TestResolveGo_AbsentSectionWithoutModule(t *testing.T) {
	t.Parallel()

	gc, err := resolveGo(nil, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("resolveGo() returned error: %v", err)
	}
	if gc != nil {
		t.Errorf("resolveGo() = %+v, want nil without a section or module", gc)
	}
}

func TestResolveGo_SynthesizedFromConventionalModule(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteFile(t, root, "go/go.mod", goModBody)

	gc, err := resolveGo(nil, root, nil)
	if err != nil {
		t.Fatalf("resolveGo() returned error: %v", err)
	}
	if gc == nil {
		t.Fatal("resolveGo() = nil, want a synthesized context")
	}

	if want := filepath.Join(root, "go"); gc.ModuleDir != want {
		t.Errorf("ModuleDir = %q, want %q", gc.ModuleDir, want)
	}
	if gc.ModulePath != "example.com/anvil/native" {
		t.Errorf("ModulePath = %q, want the declared module path", gc.ModulePath)
	}
	if !slices.Contains(gc.ArtifactGlobs, "**/*.h") {
		t.Errorf("ArtifactGlobs = %v, want the header pattern included", gc.ArtifactGlobs)
	}
}

func TestResolveGo_RootModuleFallback(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteFile(t, root, "go.mod", goModBody)

	gc, err := resolveGo(nil, root, nil)
	if err != nil {
		t.Fatalf("resolveGo() returned error: %v", err)
	}
	if gc == nil {
		t.Fatal("resolveGo() = nil, want a context from the root module")
	}
	if gc.ModuleDir != root {
		t.Errorf("ModuleDir = %q, want the repo root %q", gc.ModuleDir, root)
	}
}

func TestResolveGo_ExplicitDisabledBeatsModule(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteFile(t, root, "go/go.mod", goModBody)

	gc, err := resolveGo(&buildfile.GoSection{Enabled: boolPtr(false)}, root, nil)
	if err != nil {
		t.Fatalf("resolveGo() returned error: %v", err)
	}
	if gc != nil {
		t.Errorf("resolveGo() = %+v, want nil for enabled:false", gc)
	}
}

func TestResolveGo_ExplicitModuleDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteFile(t, root, "tools/gen/go.mod", goModBody)

	gc, err := resolveGo(&buildfile.GoSection{ModuleDir: "tools/gen"}, root, nil)
	if err != nil {
		t.Fatalf("resolveGo() returned error: %v", err)
	}
	if want := filepath.Join(root, "tools", "gen"); gc.ModuleDir != want {
		t.Errorf("ModuleDir = %q, want %q", gc.ModuleDir, want)
	}
	if gc.ModulePath != "example.com/anvil/native" {
		t.Errorf("ModulePath = %q, want the declared module path", gc.ModulePath)
	}
}

func TestResolveGo_ModuleWithoutPathTolerated(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteFile(t, root, "go/go.mod", "// no module directive yet\n")

	gc, err := resolveGo(nil, root, nil)
	if err != nil {
		t.Fatalf("resolveGo() returned error: %v", err)
	}
	if gc.ModulePath != "" {
		t.Errorf("ModulePath = %q, want empty for a go.mod without a module line", gc.ModulePath)
	}
}

func TestResolveGo_MalformedModule(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteFile(t, root, "go/go.mod", "module \"unterminated\n")

	_, err := resolveGo(nil, root, nil)
	if err == nil {
		t.Fatal("resolveGo() accepted a malformed go.mod")
	}
}
