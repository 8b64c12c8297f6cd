// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"github.com/anvil-build/anvil/internal/issue"
)

func TestExplainCommandListsAllCodes(t *testing.T) {
	// Not parallel: commands mutate package-level flag vars.
	overrideConfigDir(t)

	app, stdout, stderr := newTestApp(t, Dependencies{})
	if err := runCommand(t, app, "explain"); err != nil {
		t.Fatalf("explain returned error: %v\nstderr:\n%s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "Documented Codes") {
		t.Errorf("output missing heading:\n%s", out)
	}
	for _, iss := range issue.Values() {
		if !strings.Contains(out, string(iss.Code())) {
			t.Errorf("listing missing code %q:\n%s", iss.Code(), out)
		}
	}
}

func TestExplainCommandRendersKnownCode(t *testing.T) {
	// Not parallel: commands mutate package-level flag vars.
	overrideConfigDir(t)

	app, stdout, stderr := newTestApp(t, Dependencies{})
	if err := runCommand(t, app, "explain", string(issue.DuplicateProjectCode)); err != nil {
		t.Fatalf("explain returned error: %v\nstderr:\n%s", err, stderr.String())
	}

	if stdout.Len() == 0 {
		t.Fatal("explain wrote nothing for a documented code")
	}
	// Glamour reflows the markdown; single words survive wrapping.
	if !strings.Contains(stdout.String(), "project") {
		t.Errorf("rendered explanation missing expected content:\n%s", stdout.String())
	}
}

func TestExplainCommandUnknownCode(t *testing.T) {
	// Not parallel: commands mutate package-level flag vars.
	overrideConfigDir(t)

	app, _, _ := newTestApp(t, Dependencies{})
	err := runCommand(t, app, "explain", "definitely-not-a-code")
	if err == nil {
		t.Fatal("explain with unknown code succeeded, want error")
	}
	if !strings.Contains(err.Error(), "unknown code") {
		t.Errorf("error = %q, want unknown-code message", err)
	}
}
