// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anvil-build/anvil/internal/testutil"
)

func TestMigrateDocument_HostsDirScenario(t *testing.T) {
	t.Parallel()

	doc := RawDocument{
		"hostsDir":     "src/hosts",
		"includeHosts": []any{"A"},
	}

	bf, changes, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}

	if len(bf.ProjectGroups) != 1 {
		t.Fatalf("migrated document has %d groups, want 1", len(bf.ProjectGroups))
	}
	group := bf.ProjectGroups[0]
	if group.Name != "executables" {
		t.Errorf("group name = %q, want executables", group.Name)
	}
	if group.SourceDir != "src/hosts" {
		t.Errorf("group sourceDir = %q, want src/hosts", group.SourceDir)
	}
	if group.Action != ActionPublish {
		t.Errorf("group action = %s, want publish", group.Action)
	}
	if len(group.Include) != 1 || group.Include[0] != "A" {
		t.Errorf("group include = %v, want [A]", group.Include)
	}

	if len(changes) == 0 {
		t.Error("MigrateDocument() reported no changes")
	}
}

func TestMigrateDocument_AllThreeRoles(t *testing.T) {
	t.Parallel()

	doc := RawDocument{
		"hostsDir":     "src/hosts",
		"pluginsDir":   "src/plugins",
		"contractsDir": "src/contracts",
	}

	bf, _, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}

	names := bf.ProjectGroups.Names()
	want := []GroupName{"executables", "libraries", "contracts"}
	if len(names) != len(want) {
		t.Fatalf("migrated document has %d groups, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("group[%d] = %q, want %q (stable role order)", i, names[i], want[i])
		}
	}

	if bf.Group("libraries").Action != ActionPack {
		t.Errorf("libraries action = %s, want pack", bf.Group("libraries").Action)
	}
	if bf.Group("contracts").Action != ActionPack {
		t.Errorf("contracts action = %s, want pack", bf.Group("contracts").Action)
	}
}

func TestMigrateDocument_AbsentRolesProduceNoGroups(t *testing.T) {
	t.Parallel()

	doc := RawDocument{"pluginsDir": "src/plugins"}

	bf, _, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}

	if len(bf.ProjectGroups) != 1 || bf.ProjectGroups[0].Name != "libraries" {
		t.Errorf("groups = %v, want only libraries", bf.ProjectGroups.Names())
	}
}

func TestMigrateDocument_ScalarAndListCopies(t *testing.T) {
	t.Parallel()

	doc := RawDocument{
		"version":          "1.0.0",
		"versionEnv":       "BUILD_VERSION",
		"artifactsVersion": "0.9.0",
		"solution":         "Legacy.sln",
		"nugetOutputDir":   "out/packages",
		"artifactsDir":     "out/publish",
		"includeSymbols":   true,
		"packProperties":   map[string]any{"Authors": "Team"},
		"localFeed":        map[string]any{"path": "feed", "clean": true},
		"compileProjects":  []any{"src/A/A.csproj"},
		"publishProjects":  []any{"src/B/B.csproj"},
		"packProjects":     []any{"src/C/C.csproj"},
		"hostsDir":         "src/hosts",
	}

	bf, changes, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}

	if bf.Version != "1.0.0" || bf.VersionEnv != "BUILD_VERSION" || bf.ArtifactsVersion != "0.9.0" {
		t.Errorf("version fields = %q/%q/%q, want 1.0.0/BUILD_VERSION/0.9.0",
			bf.Version, bf.VersionEnv, bf.ArtifactsVersion)
	}
	if bf.Solution != "Legacy.sln" {
		t.Errorf("Solution = %q, want Legacy.sln", bf.Solution)
	}
	if bf.NuGetOutputDir != "out/packages" {
		t.Errorf("NuGetOutputDir = %q, want out/packages (lowercase-g spelling accepted)", bf.NuGetOutputDir)
	}
	if !bf.IncludeSymbols {
		t.Error("IncludeSymbols = false, want true")
	}
	if bf.PackProperties["Authors"] != "Team" {
		t.Errorf("PackProperties = %v, want Authors=Team", bf.PackProperties)
	}
	if bf.LocalFeed == nil || bf.LocalFeed.Path != "feed" || !bf.LocalFeed.Clean {
		t.Errorf("LocalFeed = %+v, want path=feed clean=true", bf.LocalFeed)
	}
	if len(bf.CompileProjects) != 1 || len(bf.PublishProjects) != 1 || len(bf.PackProjects) != 1 {
		t.Errorf("flat lists = %d/%d/%d entries, want 1/1/1",
			len(bf.CompileProjects), len(bf.PublishProjects), len(bf.PackProjects))
	}

	joined := strings.Join(changes, "\n")
	for _, want := range []string{"version", "solution", "localFeed", "hostsDir"} {
		if !strings.Contains(joined, want) {
			t.Errorf("change list should mention %q:\n%s", want, joined)
		}
	}
}

func TestMigrateDocument_PascalCaseKeys(t *testing.T) {
	t.Parallel()

	doc := RawDocument{
		"Version":      "2.0.0",
		"HostsDir":     "src/hosts",
		"IncludeHosts": []any{"Host"},
	}

	bf, _, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}
	if bf.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0 (PascalCase key)", bf.Version)
	}
	if len(bf.ProjectGroups) != 1 || bf.ProjectGroups[0].SourceDir != "src/hosts" {
		t.Errorf("groups = %+v, want executables from PascalCase HostsDir", bf.ProjectGroups)
	}
}

func TestMigrateDocument_NoLegacyDirsOmitsProjectGroups(t *testing.T) {
	t.Parallel()

	// Only flat lists and scalars: the migrated document must omit
	// projectGroups entirely, not emit an empty object.
	doc := RawDocument{
		"version":         "1.0.0",
		"includeHosts":    []any{"Orphan"},
		"compileProjects": []any{"src/A/A.csproj"},
	}

	bf, changes, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}
	if bf.ProjectGroups != nil {
		t.Errorf("ProjectGroups = %v, want nil", bf.ProjectGroups)
	}

	out, err := Encode(bf)
	if err != nil {
		t.Fatalf("Encode() returned error: %v", err)
	}
	if strings.Contains(string(out), "projectGroups") {
		t.Errorf("encoded document should omit projectGroups:\n%s", out)
	}

	joined := strings.Join(changes, "\n")
	if !strings.Contains(joined, "projectGroups omitted") {
		t.Errorf("change list should record the omission:\n%s", joined)
	}
}

func TestMigrateDocument_CarriesToolchainSections(t *testing.T) {
	t.Parallel()

	doc := RawDocument{
		"hostsDir": "src/hosts",
		"nativeBuild": map[string]any{
			"sourceDir": "native",
			"generator": "Ninja",
		},
		"unityBuild": map[string]any{
			"enabled":    false,
			"projectDir": "unity",
		},
	}

	bf, changes, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}

	if bf.NativeBuild == nil || bf.NativeBuild.Generator != "Ninja" {
		t.Errorf("NativeBuild = %+v, want generator Ninja", bf.NativeBuild)
	}
	if bf.UnityBuild == nil || !bf.UnityBuild.IsDisabledExplicitly() {
		t.Errorf("UnityBuild = %+v, want explicit enabled:false carried", bf.UnityBuild)
	}

	joined := strings.Join(changes, "\n")
	if !strings.Contains(joined, "nativeBuild") || !strings.Contains(joined, "unityBuild") {
		t.Errorf("change list should record carried sections:\n%s", joined)
	}
}

func TestMigrateDocument_StableChangeOrder(t *testing.T) {
	t.Parallel()

	doc := RawDocument{
		"version":      "1.0.0",
		"hostsDir":     "src/hosts",
		"pluginsDir":   "src/plugins",
		"contractsDir": "src/contracts",
	}

	_, first, err := MigrateDocument(doc)
	if err != nil {
		t.Fatalf("MigrateDocument() returned error: %v", err)
	}

	// The change list order must not depend on map iteration order.
	for range 10 {
		_, again, err := MigrateDocument(doc)
		if err != nil {
			t.Fatalf("MigrateDocument() returned error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("change count varied: %d vs %d", len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("change order varied at %d: %q vs %q", i, again[i], first[i])
			}
		}
	}
}

func TestMigrateFile_LegacyRoundTrip(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	original := `{"hostsDir":"src/hosts","includeHosts":["A"]}`
	path := testutil.WriteBuildConfig(t, tmpDir, original)

	res, err := MigrateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("MigrateFile() returned error: %v", err)
	}

	if !res.Migrated {
		t.Fatal("MigrateFile() reported Migrated=false for a legacy document")
	}
	if !res.Valid {
		t.Error("MigrateFile() reported Valid=false")
	}
	if res.BackupPath != path+BackupSuffix {
		t.Errorf("BackupPath = %q, want %q", res.BackupPath, path+BackupSuffix)
	}
	if len(res.Changes) == 0 {
		t.Error("MigrateFile() reported no changes")
	}

	// The backup holds the original bytes, byte for byte.
	backup := testutil.MustReadFile(t, res.BackupPath)
	if !bytes.Equal(backup, []byte(original)) {
		t.Errorf("backup content = %q, want original bytes %q", backup, original)
	}

	// The rewritten file re-detects as current schema.
	migrated, err := ParseRaw(path)
	if err != nil {
		t.Fatalf("re-parse of migrated file failed: %v", err)
	}
	if got := DetectSchema(migrated); got != SchemaCurrent {
		t.Errorf("migrated file detects as %s, want current", got)
	}

	// And it parses into the expected typed shape.
	bf, err := Parse(path)
	if err != nil {
		t.Fatalf("typed parse of migrated file failed: %v", err)
	}
	group := bf.Group("executables")
	if group == nil {
		t.Fatalf("migrated file has no executables group: %v", bf.ProjectGroups.Names())
	}
	if group.SourceDir != "src/hosts" || group.Action != ActionPublish {
		t.Errorf("executables group = %+v, want sourceDir=src/hosts action=publish", group)
	}
	if len(group.Include) != 1 || group.Include[0] != "A" {
		t.Errorf("executables include = %v, want [A]", group.Include)
	}

	// Pretty-printed output ends with a newline.
	data := testutil.MustReadFile(t, path)
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Error("migrated file should end with a newline")
	}

	// No staging leftovers in the directory.
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("failed to list temp dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp") {
			t.Errorf("staging file %q left behind", entry.Name())
		}
	}
}

func TestMigrateFile_CurrentDocumentIsNoOp(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	content := `{"projectGroups":{"services":{"sourceDir":"src"}}}`
	path := testutil.WriteBuildConfig(t, tmpDir, content)
	before := testutil.MustStat(t, path)

	res, err := MigrateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("MigrateFile() returned error: %v", err)
	}

	if res.Migrated {
		t.Error("MigrateFile() reported Migrated=true for a current document")
	}
	if !res.Valid {
		t.Error("no-op result should report Valid=true")
	}
	if res.BackupPath != "" {
		t.Errorf("no-op wrote a backup at %q", res.BackupPath)
	}

	// Nothing on disk changed.
	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Error("no-op migration must not create a backup file")
	}
	after := testutil.MustStat(t, path)
	if after.ModTime() != before.ModTime() || after.Size() != before.Size() {
		t.Error("no-op migration must not rewrite the config file")
	}
	if got := testutil.MustReadFile(t, path); string(got) != content {
		t.Error("no-op migration changed the file content")
	}
}

func TestMigrateFile_RefusesToOverwriteBackup(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := testutil.WriteBuildConfig(t, tmpDir, `{"hostsDir":"src/hosts"}`)
	stale := []byte(`{"stale":"backup"}`)
	testutil.MustWriteFile(t, path+BackupSuffix, stale, 0o644)

	_, err := MigrateFile(context.Background(), path)
	if err == nil {
		t.Fatal("MigrateFile() with an existing backup returned nil error")
	}
	if !errors.Is(err, ErrBackupExists) {
		t.Fatalf("error should wrap ErrBackupExists, got %v", err)
	}

	var me *MigrationError
	if !errors.As(err, &me) {
		t.Fatalf("error should be a *MigrationError, got %T", err)
	}
	if me.Step != StepBackup {
		t.Errorf("MigrationError.Step = %s, want backup", me.Step)
	}

	// The original and the stale backup are both untouched.
	if got := testutil.MustReadFile(t, path); string(got) != `{"hostsDir":"src/hosts"}` {
		t.Error("original file changed despite refused backup")
	}
	if got := testutil.MustReadFile(t, path+BackupSuffix); !bytes.Equal(got, stale) {
		t.Error("existing backup was overwritten")
	}
}

func TestMigrateFile_CancelledBeforeWriteLeavesFileUntouched(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	content := `{"hostsDir":"src/hosts"}`
	path := testutil.WriteBuildConfig(t, tmpDir, content)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MigrateFile(ctx, path)
	if err == nil {
		t.Fatal("MigrateFile() with cancelled context returned nil error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}

	if got := testutil.MustReadFile(t, path); string(got) != content {
		t.Error("cancelled migration changed the config file")
	}
	if _, statErr := os.Stat(path + BackupSuffix); !os.IsNotExist(statErr) {
		t.Error("cancelled migration left a backup behind")
	}
}

func TestMigrateFile_MissingFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	_, err := MigrateFile(context.Background(), filepath.Join(tmpDir, "missing.json"))
	if err == nil {
		t.Fatal("MigrateFile() on a missing file returned nil error")
	}
}

func TestMigrateFile_MalformedJSON(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := testutil.WriteBuildConfig(t, tmpDir, `{"hostsDir": `)

	_, err := MigrateFile(context.Background(), path)
	if err == nil {
		t.Fatal("MigrateFile() on malformed JSON returned nil error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error should be a *ParseError, got %T: %v", err, err)
	}
}

func TestPreviewMigration_LegacyDocument(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	content := `{"hostsDir":"src/hosts","includeHosts":["A"]}`
	path := testutil.WriteBuildConfig(t, tmpDir, content)

	preview, err := PreviewMigration(path)
	if err != nil {
		t.Fatalf("PreviewMigration() returned error: %v", err)
	}

	if preview.Schema != SchemaLegacy {
		t.Errorf("Schema = %s, want legacy", preview.Schema)
	}
	if len(preview.Document) == 0 {
		t.Fatal("preview produced no document")
	}
	if len(preview.Changes) == 0 {
		t.Error("preview reported no changes")
	}

	// Dry run: the file on disk is untouched and no backup appears.
	if got := testutil.MustReadFile(t, path); string(got) != content {
		t.Error("PreviewMigration() modified the file")
	}
	if _, statErr := os.Stat(path + BackupSuffix); !os.IsNotExist(statErr) {
		t.Error("PreviewMigration() wrote a backup")
	}

	// The previewed document matches what a real migration writes.
	res, err := MigrateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("MigrateFile() returned error: %v", err)
	}
	written := testutil.MustReadFile(t, res.MigratedPath)
	if !bytes.Equal(preview.Document, written) {
		t.Errorf("preview document differs from migrated file:\npreview:\n%s\nwritten:\n%s", preview.Document, written)
	}
}

func TestPreviewMigration_CurrentDocument(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := testutil.WriteBuildConfig(t, tmpDir, `{"projectGroups":{}}`)

	preview, err := PreviewMigration(path)
	if err != nil {
		t.Fatalf("PreviewMigration() returned error: %v", err)
	}
	if preview.Schema != SchemaCurrent {
		t.Errorf("Schema = %s, want current", preview.Schema)
	}
	if preview.Document != nil {
		t.Errorf("preview of a current document should carry no rewrite, got:\n%s", preview.Document)
	}
}

func TestBackupPath(t *testing.T) {
	t.Parallel()

	if got := BackupPath("/repo/anvil.json"); got != "/repo/anvil.json.bak" {
		t.Errorf("BackupPath() = %q, want /repo/anvil.json.bak", got)
	}
}

func TestEncode_Formatting(t *testing.T) {
	t.Parallel()

	out, err := Encode(&BuildFile{Version: "1.0.0"})
	if err != nil {
		t.Fatalf("Encode() returned error: %v", err)
	}

	s := string(out)
	if !strings.HasSuffix(s, "\n") {
		t.Error("Encode() output should end with a newline")
	}
	if !strings.Contains(s, "  \"version\"") {
		t.Errorf("Encode() should indent with two spaces, got:\n%s", s)
	}
}

func TestStarter_IsCurrentSchemaAndParses(t *testing.T) {
	t.Parallel()

	out, err := Encode(Starter())
	if err != nil {
		t.Fatalf("Encode(Starter()) returned error: %v", err)
	}

	doc, err := ParseRawBytes(out, "")
	if err != nil {
		t.Fatalf("starter document does not parse: %v", err)
	}
	if got := DetectSchema(doc); got != SchemaCurrent {
		t.Errorf("starter document detects as %s, want current", got)
	}

	bf, err := ParseBytes(out, "")
	if err != nil {
		t.Fatalf("starter document does not parse typed: %v", err)
	}
	if !bf.HasGroups() {
		t.Error("starter document should declare example groups")
	}
}
