// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// BackupSuffix is appended to the original path to form the backup path.
	BackupSuffix = ".bak"

	// StepTransform is the in-memory legacy-to-current transformation.
	StepTransform MigrationStep = "transform"
	// StepVerify is the re-parse of the migrated document before any write.
	StepVerify MigrationStep = "verify"
	// StepStage writes the migrated document to a temporary sibling file.
	StepStage MigrationStep = "stage"
	// StepBackup writes the original bytes to the backup path.
	StepBackup MigrationStep = "backup"
	// StepReplace atomically renames the staged file over the original.
	StepReplace MigrationStep = "replace"
)

var (
	// ErrBackupExists is returned when the backup path is already occupied.
	// Migration never overwrites an existing backup: it may be the only
	// remaining copy of an earlier schema.
	ErrBackupExists = errors.New("backup file already exists")

	// ErrInvalidMigrationStep is returned when a MigrationStep value is not one of the defined steps.
	ErrInvalidMigrationStep = errors.New("invalid migration step")
)

type (
	// MigrationStep names the phase a migration failure occurred in.
	MigrationStep string

	// InvalidMigrationStepError is returned when a MigrationStep value is not recognized.
	// It wraps ErrInvalidMigrationStep for errors.Is() compatibility.
	InvalidMigrationStepError struct {
		Value MigrationStep
	}

	// MigrationError reports an I/O or transformation failure during
	// migration. The original config file is guaranteed untouched unless
	// Step is StepReplace, and even then the backup is already on disk.
	MigrationError struct {
		// Step is the phase that failed.
		Step MigrationStep
		// Path is the file involved in the failing step.
		Path string
		// Err is the underlying failure.
		Err error
	}

	// MigrationResult describes what a migration invocation did.
	MigrationResult struct {
		// OriginalPath is the config file the migration ran against.
		OriginalPath string
		// BackupPath is where the original bytes were copied; empty when no
		// migration was needed.
		BackupPath string
		// MigratedPath is the rewritten file; empty when no migration was needed.
		MigratedPath string
		// Changes lists the applied transformations in a stable order.
		Changes []string
		// Migrated is false when the document was already current (no-op).
		Migrated bool
		// Valid reports that the written result re-parsed as current schema.
		// Always true for no-op results.
		Valid bool
	}

	// MigrationPreview is the outcome of a dry run: the document that a real
	// migration would write, without any filesystem effect.
	MigrationPreview struct {
		// Schema is the detected schema of the input document.
		Schema SchemaVersion
		// Document is the pretty-printed migrated JSON; nil when the input
		// is already current.
		Document []byte
		// Changes lists the transformations a real migration would apply.
		Changes []string
	}
)

// String returns the string representation of the MigrationStep.
func (s MigrationStep) String() string { return string(s) }

// Validate returns nil if the MigrationStep is one of the defined steps,
// or a validation error if it is not.
func (s MigrationStep) Validate() error {
	switch s {
	case StepTransform, StepVerify, StepStage, StepBackup, StepReplace:
		return nil
	default:
		return &InvalidMigrationStepError{Value: s}
	}
}

// Error implements the error interface for InvalidMigrationStepError.
func (e *InvalidMigrationStepError) Error() string {
	return fmt.Sprintf("invalid migration step %q (valid: transform, verify, stage, backup, replace)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidMigrationStepError) Unwrap() error {
	return ErrInvalidMigrationStep
}

// Error implements the error interface for MigrationError.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s failed for %s: %v", e.Step, e.Path, e.Err)
}

// Unwrap returns the underlying failure for errors.Is/As.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// BackupPath returns the deterministic sibling path the original file is
// copied to before migration rewrites it.
func BackupPath(path string) string {
	return path + BackupSuffix
}

// MigrateDocument transforms a legacy raw document into the current typed
// model. It is a deterministic, in-memory transformation with no filesystem
// effect, returning the migrated document and a stable-ordered change list.
//
// The transformation:
//  1. copies scalar settings and flat project arrays verbatim
//  2. synthesizes projectGroups from whichever legacy directory properties
//     are present (hostsDir ⇒ executables/publish, pluginsDir ⇒
//     libraries/pack, contractsDir ⇒ contracts/pack)
//  3. carries optional toolchain sections through the typed model so their
//     formatting is normalized
//
// When no legacy directory properties exist, projectGroups is omitted
// entirely, signalling a document that used only flat project lists.
// The only failure mode is a toolchain section that cannot be expressed in
// the typed model.
func MigrateDocument(doc RawDocument) (*BuildFile, []string, error) {
	bf := &BuildFile{}
	var changes []string

	copyScalar := func(key string, dst *string) {
		if v := stringAt(doc, key); v != "" {
			*dst = v
			changes = append(changes, fmt.Sprintf("copied %s %q", key, v))
		}
	}

	copyScalar("version", &bf.Version)
	copyScalar("versionEnv", &bf.VersionEnv)
	copyScalar("artifactsVersion", &bf.ArtifactsVersion)
	copyScalar("solution", &bf.Solution)

	// The canonical key has a lowercase first letter and an internal capital;
	// older documents spell it a few ways.
	for _, key := range []string{"nuGetOutputDir", "nugetOutputDir"} {
		if v := stringAt(doc, key); v != "" {
			bf.NuGetOutputDir = v
			changes = append(changes, fmt.Sprintf("copied %s %q", key, v))
			break
		}
	}

	copyScalar("artifactsDir", &bf.ArtifactsDir)

	if v, ok := boolAt(doc, "includeSymbols"); ok && v {
		bf.IncludeSymbols = true
		changes = append(changes, "copied includeSymbols true")
	}

	if props := stringMapAt(doc, "packProperties"); len(props) > 0 {
		bf.PackProperties = props
		changes = append(changes, fmt.Sprintf("copied packProperties (%d entries)", len(props)))
	}

	if raw, ok := lookupEither(doc, "localFeed"); ok {
		var feed LocalFeed
		if err := redecode(raw, &feed); err != nil {
			return nil, nil, fmt.Errorf("localFeed: %w", err)
		}
		bf.LocalFeed = &feed
		changes = append(changes, "copied localFeed settings")
	}

	copyList := func(key string, dst *[]string) {
		if v := stringsAt(doc, key); len(v) > 0 {
			*dst = v
			changes = append(changes, fmt.Sprintf("copied %s (%d entries)", key, len(v)))
		}
	}

	copyList("compileProjects", &bf.CompileProjects)
	copyList("publishProjects", &bf.PublishProjects)
	copyList("packProjects", &bf.PackProjects)

	legacy := ExtractLegacy(doc)
	for _, role := range []LegacyRole{RoleExecutables, RoleLibraries, RoleContracts} {
		if !legacy.HasRole(role) {
			continue
		}
		group := ProjectGroup{
			Name:      role.GroupName(),
			SourceDir: legacy.Dir(role),
			Action:    role.Action(),
			Include:   legacy.Include(role),
			Exclude:   legacy.Exclude(role),
		}
		bf.ProjectGroups = append(bf.ProjectGroups, group)
		changes = append(changes, fmt.Sprintf("mapped %s %q to group %q (action %s)",
			legacyDirKey(role), group.SourceDir, group.Name, group.Action))
	}
	if len(bf.ProjectGroups) == 0 {
		changes = append(changes, "no legacy directory properties; projectGroups omitted")
	}

	if raw, ok := lookupEither(doc, "nativeBuild"); ok {
		bf.NativeBuild = &NativeSection{}
		if err := redecode(raw, bf.NativeBuild); err != nil {
			return nil, nil, fmt.Errorf("nativeBuild: %w", err)
		}
		changes = append(changes, "carried nativeBuild section")
	}
	if raw, ok := lookupEither(doc, "rustBuild"); ok {
		bf.RustBuild = &RustSection{}
		if err := redecode(raw, bf.RustBuild); err != nil {
			return nil, nil, fmt.Errorf("rustBuild: %w", err)
		}
		changes = append(changes, "carried rustBuild section")
	}
	if raw, ok := lookupEither(doc, "goBuild"); ok {
		bf.GoBuild = &GoSection{}
		if err := redecode(raw, bf.GoBuild); err != nil {
			return nil, nil, fmt.Errorf("goBuild: %w", err)
		}
		changes = append(changes, "carried goBuild section")
	}
	if raw, ok := lookupEither(doc, "unityBuild"); ok {
		bf.UnityBuild = &UnitySection{}
		if err := redecode(raw, bf.UnityBuild); err != nil {
			return nil, nil, fmt.Errorf("unityBuild: %w", err)
		}
		changes = append(changes, "carried unityBuild section")
	}

	return bf, changes, nil
}

// PreviewMigration computes what migrating the file at path would do,
// without touching the filesystem.
func PreviewMigration(path string) (MigrationPreview, error) {
	doc, err := ParseRaw(path)
	if err != nil {
		return MigrationPreview{}, err
	}

	schema := DetectSchema(doc)
	if schema == SchemaCurrent {
		return MigrationPreview{Schema: schema}, nil
	}

	bf, changes, err := MigrateDocument(doc)
	if err != nil {
		return MigrationPreview{}, &MigrationError{Step: StepTransform, Path: path, Err: err}
	}

	out, err := Encode(bf)
	if err != nil {
		return MigrationPreview{}, &MigrationError{Step: StepTransform, Path: path, Err: err}
	}

	return MigrationPreview{Schema: schema, Document: out, Changes: changes}, nil
}

// MigrateFile migrates the config file at path from the legacy schema to the
// current one, in place.
//
// An already-current document is a complete no-op: no backup, no rewrite,
// and the result reports Migrated=false.
//
// For a legacy document the write path is staged so a crash at any point
// leaves a recoverable state:
//  1. the migrated document is verified by re-parsing it in memory
//  2. it is written to a temporary file in the config's directory and synced
//  3. the original bytes are copied to <path>.bak (refusing to overwrite an
//     existing backup) and synced
//  4. the temporary file is atomically renamed over the original
//
// The context is honored between steps; cancellation before the final rename
// leaves the original file untouched.
func MigrateFile(ctx context.Context, path string) (MigrationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("failed to read build config at %s: %w", path, err)
	}

	doc, err := ParseRawBytes(data, path)
	if err != nil {
		return MigrationResult{}, err
	}

	if DetectSchema(doc) == SchemaCurrent {
		return MigrationResult{OriginalPath: path, Valid: true}, nil
	}

	bf, changes, err := MigrateDocument(doc)
	if err != nil {
		return MigrationResult{}, &MigrationError{Step: StepTransform, Path: path, Err: err}
	}

	out, err := Encode(bf)
	if err != nil {
		return MigrationResult{}, &MigrationError{Step: StepTransform, Path: path, Err: err}
	}

	// Prove the result is a valid current-schema document before any write.
	if _, err := ParseBytes(out, path); err != nil {
		return MigrationResult{}, &MigrationError{Step: StepVerify, Path: path, Err: err}
	}
	migratedDoc, err := ParseRawBytes(out, path)
	if err != nil {
		return MigrationResult{}, &MigrationError{Step: StepVerify, Path: path, Err: err}
	}
	if got := DetectSchema(migratedDoc); got != SchemaCurrent {
		return MigrationResult{}, &MigrationError{
			Step: StepVerify,
			Path: path,
			Err:  fmt.Errorf("migrated document detected as %s", got),
		}
	}

	if err := ctx.Err(); err != nil {
		return MigrationResult{}, &MigrationError{Step: StepStage, Path: path, Err: err}
	}

	tmpPath, err := stageFile(path, out)
	if err != nil {
		return MigrationResult{}, &MigrationError{Step: StepStage, Path: path, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if err := ctx.Err(); err != nil {
		return MigrationResult{}, &MigrationError{Step: StepBackup, Path: path, Err: err}
	}

	bakPath := BackupPath(path)
	if err := writeBackup(bakPath, data); err != nil {
		return MigrationResult{}, &MigrationError{Step: StepBackup, Path: bakPath, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return MigrationResult{}, &MigrationError{Step: StepReplace, Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return MigrationResult{}, &MigrationError{Step: StepReplace, Path: path, Err: err}
	}
	committed = true

	return MigrationResult{
		OriginalPath: path,
		BackupPath:   bakPath,
		MigratedPath: path,
		Changes:      changes,
		Migrated:     true,
		Valid:        true,
	}, nil
}

// stageFile writes content to a fresh temporary file next to path and
// returns the temporary path. The file is synced and closed before return.
func stageFile(path string, content []byte) (string, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return "", err
	}
	tmpPath := f.Name()

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// writeBackup copies the original bytes to bakPath, failing if a backup is
// already present, and confirms the copy landed before returning.
func writeBackup(bakPath string, original []byte) error {
	f, err := os.OpenFile(bakPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrBackupExists, bakPath)
		}
		return err
	}

	if _, err := f.Write(original); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Confirm the backup is really there and complete before the original
	// is allowed to be replaced.
	info, err := os.Stat(bakPath)
	if err != nil {
		return err
	}
	if info.Size() != int64(len(original)) {
		return fmt.Errorf("backup size mismatch: wrote %d bytes, found %d", len(original), info.Size())
	}
	return nil
}

// legacyDirKey returns the legacy document key that carries a role's directory.
func legacyDirKey(role LegacyRole) string {
	switch role {
	case RoleExecutables:
		return "hostsDir"
	case RoleLibraries:
		return "pluginsDir"
	case RoleContracts:
		return "contractsDir"
	default:
		return string(role)
	}
}

// stringMapAt reads a top-level string-to-string map by camel/Pascal key.
// Non-string values are skipped.
func stringMapAt(doc RawDocument, camel string) map[string]string {
	v, ok := lookupEither(doc, camel)
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]string, len(obj))
	for key, val := range obj {
		if s, ok := val.(string); ok {
			out[key] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// redecode carries an untyped JSON value into a typed destination by
// re-serializing it, so optional sections are normalized through the model.
func redecode(raw any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
