// Package cli implements the deephelper command line: the HTTP server
// (serve, the default) and small clients for a running server.
package cli

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"deephelper/internal/config"
	"deephelper/internal/provider"
)

// Options collects flag values before they are merged into a config.Config.
type Options struct {
	ConfigPath string
	EnvFile    string

	// Client commands.
	Server  string
	Timeout time.Duration
	JSON    bool
	Remote  bool

	// flags holds server settings given on the command line. Zero values
	// mean "not given" and are ignored by config.Merge.
	flags       config.Config
	warmup      bool
	cors        bool
	corsOrigins string

	Stdout io.Writer
	Stderr io.Writer
}

// Overridable for tests.
var (
	fnNewProvider = provider.FromConfig
	fnOnListening = func(net.Addr) {}
	fnLookupEnv   = os.LookupEnv
)

// MainWithArgs runs the CLI with args (without the program name) and returns
// the process exit code.
func MainWithArgs(args []string) int {
	return mainWith(args, os.Stdout, os.Stderr)
}

func mainWith(args []string, stdout, stderr io.Writer) int {
	opts := &Options{Stdout: stdout, Stderr: stderr}
	root := buildRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
