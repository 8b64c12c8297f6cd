// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anvil-build/anvil/internal/discovery"
	"github.com/anvil-build/anvil/internal/hostenv"
	"github.com/anvil-build/anvil/internal/schemacheck"
	"github.com/anvil-build/anvil/internal/testutil"
	"github.com/anvil-build/anvil/pkg/buildctx"
	"github.com/anvil-build/anvil/pkg/buildfile"
)

const (
	// sampleConfig is a representative current-schema document for
	// benchmarking parsing. It exercises groups, toolchain sections, and the
	// top-level settings together.
	sampleConfig = `{
  "versionEnv": "Version",
  "artifactsVersion": "1.4.0",
  "solution": "Product.sln",
  "nuGetOutputDir": "artifacts/packages",
  "artifactsDir": "artifacts/publish",
  "includeSymbols": true,
  "packProperties": {
    "Authors": "Build Team",
    "RepositoryUrl": "https://example.invalid/repo"
  },
  "projectGroups": {
    "services": {
      "sourceDir": "src/services",
      "action": "publish",
      "exclude": ["LoadGenerator"]
    },
    "libraries": {
      "sourceDir": "src/libs",
      "action": "pack"
    },
    "contracts": {
      "sourceDir": "src/contracts",
      "action": "pack",
      "include": ["Api.Contracts", "Events.Contracts"]
    },
    "tools": {
      "sourceDir": "src/tools"
    }
  },
  "nativeBuild": {
    "sourceDir": "native",
    "configuration": "Release",
    "extraArgs": "-DBUILD_TESTS=OFF"
  },
  "goBuild": {
    "moduleDir": "go"
  }
}`

	// legacyConfig is a flat-layout document for benchmarking detection and
	// migration.
	legacyConfig = `{
  "version": "2.0.0",
  "solution": "Product.sln",
  "hostsDir": "src/hosts",
  "includeHosts": ["Gateway", "Worker"],
  "pluginsDir": "src/plugins",
  "excludePlugins": ["Experimental"],
  "contractsDir": "src/contracts",
  "nugetOutputDir": "out/packages",
  "includeSymbols": true
}`
)

// writeBenchRepo lays out a repository shaped like the sample document:
// project files under each group's source dir plus noise that discovery
// must skip.
func writeBenchRepo(b *testing.B) string {
	b.Helper()
	root := b.TempDir()

	for i := 0; i < 8; i++ {
		name := "Service" + string(rune('A'+i))
		testutil.WriteProject(b, root, filepath.Join("src", "services", name), name)
	}
	testutil.WriteProject(b, root, filepath.Join("src", "services", "LoadGenerator"), "LoadGenerator")
	for i := 0; i < 12; i++ {
		name := "Lib" + string(rune('A'+i))
		testutil.WriteProject(b, root, filepath.Join("src", "libs", name), name)
	}
	testutil.WriteProject(b, root, filepath.Join("src", "contracts", "Api.Contracts"), "Api.Contracts")
	testutil.WriteProject(b, root, filepath.Join("src", "contracts", "Events.Contracts"), "Events.Contracts")
	testutil.WriteProject(b, root, filepath.Join("src", "tools", "Codegen"), "Codegen")

	// Noise: build output and VCS trees that the walk must prune.
	testutil.WriteFile(b, root, filepath.Join("src", "services", "ServiceA", "bin", "ServiceA.dll"), "")
	testutil.WriteFile(b, root, filepath.Join("src", "services", "ServiceA", "obj", "project.assets.json"), "{}")
	testutil.WriteFile(b, root, filepath.Join(".git", "HEAD"), "ref: refs/heads/main")
	testutil.WriteFile(b, root, filepath.Join("node_modules", "pkg", "index.js"), "")

	return root
}

// BenchmarkParse benchmarks typed JSON document parsing.
// This exercises the hot path in pkg/buildfile/parse.go.
func BenchmarkParse(b *testing.B) {
	data := []byte(sampleConfig)

	b.ResetTimer()
	for b.Loop() {
		_, err := buildfile.ParseBytes(data, "anvil.json")
		if err != nil {
			b.Fatalf("ParseBytes failed: %v", err)
		}
	}
}

// BenchmarkSchemaDetect benchmarks raw parsing plus schema classification.
func BenchmarkSchemaDetect(b *testing.B) {
	data := []byte(legacyConfig)

	b.ResetTimer()
	for b.Loop() {
		doc, err := buildfile.ParseRawBytes(data, "anvil.json")
		if err != nil {
			b.Fatalf("ParseRawBytes failed: %v", err)
		}
		if schema := buildfile.DetectSchema(doc); schema != buildfile.SchemaLegacy {
			b.Fatalf("DetectSchema = %v, want legacy", schema)
		}
	}
}

// BenchmarkSchemaCheck benchmarks CUE structural validation.
// This exercises the hot path in internal/schemacheck.
func BenchmarkSchemaCheck(b *testing.B) {
	data := []byte(sampleConfig)

	b.ResetTimer()
	for b.Loop() {
		if err := schemacheck.Check(data, "anvil.json"); err != nil {
			b.Fatalf("Check failed: %v", err)
		}
	}
}

// BenchmarkLegacyMigration benchmarks the in-memory legacy transform.
func BenchmarkLegacyMigration(b *testing.B) {
	doc, err := buildfile.ParseRawBytes([]byte(legacyConfig), "anvil.json")
	if err != nil {
		b.Fatalf("ParseRawBytes failed: %v", err)
	}

	b.ResetTimer()
	for b.Loop() {
		_, _, err := buildfile.MigrateDocument(doc)
		if err != nil {
			b.Fatalf("MigrateDocument failed: %v", err)
		}
	}
}

// BenchmarkDiscoveryCold benchmarks a full project walk with memoization
// disabled, so every iteration pays the filesystem cost.
func BenchmarkDiscoveryCold(b *testing.B) {
	root := writeBenchRepo(b)
	finder := discovery.New(discovery.WithCacheSize(0))
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		projects, err := finder.FindProjects(ctx, filepath.Join(root, "src", "services"), nil, nil)
		if err != nil {
			b.Fatalf("FindProjects failed: %v", err)
		}
		if len(projects) == 0 {
			b.Fatal("FindProjects returned no projects")
		}
	}
}

// BenchmarkDiscoveryMemoized benchmarks the cached walk path that repeated
// group scans within one invocation hit.
func BenchmarkDiscoveryMemoized(b *testing.B) {
	root := writeBenchRepo(b)
	finder := discovery.New()
	ctx := context.Background()

	// Prime the cache.
	if _, err := finder.FindProjects(ctx, filepath.Join(root, "src", "services"), nil, nil); err != nil {
		b.Fatalf("FindProjects failed: %v", err)
	}

	b.ResetTimer()
	for b.Loop() {
		projects, err := finder.FindProjects(ctx, filepath.Join(root, "src", "services"), nil, nil)
		if err != nil {
			b.Fatalf("FindProjects failed: %v", err)
		}
		if len(projects) == 0 {
			b.Fatal("FindProjects returned no projects")
		}
	}
}

// BenchmarkResolve benchmarks end-to-end context resolution over a realistic
// repository layout.
func BenchmarkResolve(b *testing.B) {
	root := writeBenchRepo(b)
	bf, err := buildfile.ParseBytes([]byte(sampleConfig), filepath.Join(root, "anvil.json"))
	if err != nil {
		b.Fatalf("ParseBytes failed: %v", err)
	}

	resolver := buildctx.New(
		buildctx.WithFinder(discovery.New()),
		buildctx.WithEnv(hostenv.Map(map[string]string{"Version": "3.1.4"})),
	)
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		bc, err := resolver.Resolve(ctx, bf, root)
		if err != nil {
			b.Fatalf("Resolve failed: %v", err)
		}
		if len(bc.PublishProjects) == 0 {
			b.Fatal("Resolve returned no publish projects")
		}
	}
}

// BenchmarkValidate benchmarks the semantic validation pass.
func BenchmarkValidate(b *testing.B) {
	root := writeBenchRepo(b)
	bf, err := buildfile.ParseBytes([]byte(sampleConfig), filepath.Join(root, "anvil.json"))
	if err != nil {
		b.Fatalf("ParseBytes failed: %v", err)
	}

	finder := discovery.New()
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		_, err := buildfile.ValidateSemantics(ctx, bf, buildfile.ValidateOptions{
			RepoRoot: root,
			Lister:   finder,
		})
		if err != nil {
			b.Fatalf("ValidateSemantics failed: %v", err)
		}
	}
}

// BenchmarkVersionResolution benchmarks the precedence chain walk.
func BenchmarkVersionResolution(b *testing.B) {
	bf := &buildfile.BuildFile{VersionEnv: "BUILD_VER", ArtifactsVersion: "0.9.0"}
	env := hostenv.Map(map[string]string{"GITVERSION_MAJORMINORPATCH": "5.0.2"})

	b.ResetTimer()
	for b.Loop() {
		if got := buildfile.ResolveVersion(bf, "", env); got != "5.0.2" {
			b.Fatalf("ResolveVersion = %q, want 5.0.2", got)
		}
	}
}
