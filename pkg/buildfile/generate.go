// SPDX-License-Identifier: MPL-2.0

package buildfile

import "encoding/json"

// Encode renders a document as pretty-printed JSON with a trailing newline,
// the formatting used for every file anvil writes.
func Encode(bf *BuildFile) ([]byte, error) {
	out, err := json.MarshalIndent(bf, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Starter returns the document written by `anvil init`: a minimal
// current-schema config demonstrating the common group layout.
func Starter() *BuildFile {
	return &BuildFile{
		VersionEnv: DefaultVersionEnvVar,
		ProjectGroups: GroupList{
			{
				Name:      "services",
				SourceDir: "src/services",
				Action:    ActionPublish,
			},
			{
				Name:      "libraries",
				SourceDir: "src/libs",
				Action:    ActionPack,
			},
		},
	}
}
