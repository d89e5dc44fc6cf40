// Command floppyimg is the CLI entry point; all flag/subcommand
// wiring lives in the sibling cmd package.
package main

import "github.com/sergev/floppyimg/cmd"

func main() {
	cmd.Execute()
}
