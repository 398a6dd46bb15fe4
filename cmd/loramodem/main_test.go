package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// runWithArgs drives run with the given positional arguments and
// captures what it writes to stderr.
func runWithArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app := cli.NewApp()
	app.Name = "loramodem"
	set := flag.NewFlagSet(app.Name, flag.ContinueOnError)
	require.NoError(t, set.Parse(args))
	c := cli.NewContext(app, set, nil)

	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	runErr := run(c)
	os.Stderr = old
	require.NoError(t, w.Close())

	captured, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(captured), runErr
}

func TestRunRejectsMissingDeviceArg(t *testing.T) {
	stderr, err := runWithArgs(t)

	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.ExitCode())
	require.Contains(t, stderr, "Usage: loramodem")
	require.EqualError(t, err, "exactly one serial device argument is required")
}

func TestRunRejectsExtraArgs(t *testing.T) {
	dir := t.TempDir()
	stderr, err := runWithArgs(t,
		filepath.Join(dir, "ttyA"),
		filepath.Join(dir, "ttyB"),
	)

	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.ExitCode())
	require.Contains(t, stderr, "Usage: loramodem")
	// Rejected on arity alone: an attempted open of either path would
	// have produced a different, open-flavored error.
	require.EqualError(t, err, "exactly one serial device argument is required")
}
