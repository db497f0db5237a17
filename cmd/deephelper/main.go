// Command deephelper serves the DeepHelper chat assistant and offers client
// subcommands for talking to a running instance.
package main

import (
	"os"

	"deephelper/internal/cli"
)

func main() {
	os.Exit(cli.MainWithArgs(os.Args[1:]))
}
