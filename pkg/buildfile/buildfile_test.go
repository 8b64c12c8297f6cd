// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGroupList_UnmarshalPreservesDeclarationOrder(t *testing.T) {
	t.Parallel()

	// Key order here is deliberately not alphabetical; the decode must keep
	// the document's order, not the map iteration order.
	input := `{
		"zeta":  {"sourceDir": "src/zeta"},
		"alpha": {"sourceDir": "src/alpha", "action": "pack"},
		"mid":   {"sourceDir": "src/mid", "include": ["A", "B"]}
	}`

	var gl GroupList
	if err := json.Unmarshal([]byte(input), &gl); err != nil {
		t.Fatalf("Unmarshal() returned error: %v", err)
	}

	wantOrder := []GroupName{"zeta", "alpha", "mid"}
	names := gl.Names()
	if len(names) != len(wantOrder) {
		t.Fatalf("decoded %d groups, want %d", len(names), len(wantOrder))
	}
	for i, want := range wantOrder {
		if names[i] != want {
			t.Errorf("group[%d] = %q, want %q", i, names[i], want)
		}
	}

	if gl[1].Action != ActionPack {
		t.Errorf("group %q action = %q, want %q", gl[1].Name, gl[1].Action, ActionPack)
	}
	if len(gl[2].Include) != 2 {
		t.Errorf("group %q include length = %d, want 2", gl[2].Name, len(gl[2].Include))
	}
}

func TestGroupList_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	gl := GroupList{
		{Name: "services", SourceDir: "src/services", Action: ActionPublish},
		{Name: "libraries", SourceDir: "src/libs", Action: ActionPack, Exclude: []string{"Internal"}},
	}

	data, err := json.Marshal(gl)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}

	var back GroupList
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() of marshaled form returned error: %v", err)
	}

	if len(back) != len(gl) {
		t.Fatalf("round-trip produced %d groups, want %d", len(back), len(gl))
	}
	for i := range gl {
		if back[i].Name != gl[i].Name {
			t.Errorf("round-trip group[%d].Name = %q, want %q", i, back[i].Name, gl[i].Name)
		}
		if back[i].SourceDir != gl[i].SourceDir {
			t.Errorf("round-trip group[%d].SourceDir = %q, want %q", i, back[i].SourceDir, gl[i].SourceDir)
		}
		if back[i].Action != gl[i].Action {
			t.Errorf("round-trip group[%d].Action = %q, want %q", i, back[i].Action, gl[i].Action)
		}
	}
}

func TestGroupList_MarshalDoesNotEmitName(t *testing.T) {
	t.Parallel()

	gl := GroupList{{Name: "services", SourceDir: "src/services"}}
	data, err := json.Marshal(gl)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}

	// The name is the object key, never a body field.
	if strings.Contains(string(data), `"Name"`) || strings.Contains(string(data), `"name"`) {
		t.Errorf("marshaled form leaks the name as a body field: %s", data)
	}
	if !strings.Contains(string(data), `"services":`) {
		t.Errorf("marshaled form should use the name as object key: %s", data)
	}
}

func TestGroupList_UnmarshalNull(t *testing.T) {
	t.Parallel()

	gl := GroupList{{Name: "stale"}}
	if err := json.Unmarshal([]byte("null"), &gl); err != nil {
		t.Fatalf("Unmarshal(null) returned error: %v", err)
	}
	if gl != nil {
		t.Errorf("Unmarshal(null) should reset the list, got %v", gl)
	}
}

func TestGroupList_UnmarshalRejectsNonObject(t *testing.T) {
	t.Parallel()

	var gl GroupList
	if err := json.Unmarshal([]byte(`["not", "an", "object"]`), &gl); err == nil {
		t.Error("Unmarshal() of an array should fail")
	}
}

func TestBuildFile_ParseFullDocument(t *testing.T) {
	t.Parallel()

	input := `{
		"version": "1.2.3",
		"versionEnv": "BUILD_VERSION",
		"solution": "Anvil.sln",
		"nuGetOutputDir": "artifacts/packages",
		"artifactsDir": "artifacts/publish",
		"includeSymbols": true,
		"packProperties": {"Authors": "Anvil Team"},
		"localFeed": {"path": "feed", "clean": true},
		"compileProjects": ["src/Tools/Tools.csproj"],
		"projectGroups": {
			"services": {"sourceDir": "src/services", "action": "publish"},
			"libraries": {"sourceDir": "src/libs", "action": "pack", "include": ["Core"]}
		},
		"nativeBuild": {"sourceDir": "native", "generator": "Ninja"},
		"unityBuild": {"enabled": false}
	}`

	bf, err := ParseBytes([]byte(input), "anvil.json")
	if err != nil {
		t.Fatalf("ParseBytes() returned error: %v", err)
	}

	if bf.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", bf.Version, "1.2.3")
	}
	if bf.VersionEnv != "BUILD_VERSION" {
		t.Errorf("VersionEnv = %q, want %q", bf.VersionEnv, "BUILD_VERSION")
	}
	if !bf.IncludeSymbols {
		t.Error("IncludeSymbols = false, want true")
	}
	if bf.PackProperties["Authors"] != "Anvil Team" {
		t.Errorf("PackProperties[Authors] = %q, want %q", bf.PackProperties["Authors"], "Anvil Team")
	}
	if bf.LocalFeed == nil || bf.LocalFeed.Path != "feed" || !bf.LocalFeed.Clean {
		t.Errorf("LocalFeed = %+v, want path=feed clean=true", bf.LocalFeed)
	}
	if len(bf.CompileProjects) != 1 {
		t.Errorf("CompileProjects length = %d, want 1", len(bf.CompileProjects))
	}
	if !bf.HasGroups() {
		t.Fatal("HasGroups() = false, want true")
	}
	if got := bf.ProjectGroups.Names(); got[0] != "services" || got[1] != "libraries" {
		t.Errorf("group order = %v, want [services libraries]", got)
	}
	if bf.FilePath != "anvil.json" {
		t.Errorf("FilePath = %q, want %q", bf.FilePath, "anvil.json")
	}

	if !bf.NativeBuild.IsEnabled() {
		t.Error("NativeBuild.IsEnabled() = false, want true (no enabled flag means on)")
	}
	if bf.NativeBuild.Generator != "Ninja" {
		t.Errorf("NativeBuild.Generator = %q, want %q", bf.NativeBuild.Generator, "Ninja")
	}
	if bf.UnityBuild.IsEnabled() {
		t.Error("UnityBuild.IsEnabled() = true, want false (explicit enabled:false)")
	}
	if !bf.UnityBuild.IsDisabledExplicitly() {
		t.Error("UnityBuild.IsDisabledExplicitly() = false, want true")
	}
	if bf.RustBuild.IsEnabled() {
		t.Error("RustBuild.IsEnabled() = true for an absent section, want false")
	}
	if bf.RustBuild.IsDisabledExplicitly() {
		t.Error("RustBuild.IsDisabledExplicitly() = true for an absent section, want false")
	}
}

func TestBuildFile_Group(t *testing.T) {
	t.Parallel()

	bf := &BuildFile{ProjectGroups: GroupList{
		{Name: "services", SourceDir: "src/services"},
		{Name: "libraries", SourceDir: "src/libs"},
	}}

	if g := bf.Group("libraries"); g == nil || g.SourceDir != "src/libs" {
		t.Errorf("Group(libraries) = %+v, want the libraries group", g)
	}
	if g := bf.Group("missing"); g != nil {
		t.Errorf("Group(missing) = %+v, want nil", g)
	}
}
