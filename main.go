// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/anvil-build/anvil/cmd/anvil"

func main() {
	cmd.Execute()
}
