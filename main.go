// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/dupetable/dupetable/cmd/dupetable"

func main() {
	cmd.Execute()
}
