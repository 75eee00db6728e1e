package command

import (
	"bytes"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

// runApp runs geminictl with args, feeding stdin and capturing output.
func runApp(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()

	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"geminictl"}, args...))
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// mustRun is runApp that fails the test on error.
func mustRun(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	res := runApp(t, stdin, args...)
	if res.err != nil {
		t.Fatalf("geminictl %s: %v\nstderr: %s", strings.Join(args, " "), res.err, res.stderr)
	}
	return res
}
