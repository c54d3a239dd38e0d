package cmd

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// osOutput guards the swapping of os.Stdout and os.Stderr,
// so commands can be executed from parallel tests.
var osOutput sync.Mutex

// TestExecute executes command with args and returns everything it printed,
// via the command's writers as well as to os.Stdout and os.Stderr.
func TestExecute(t *testing.T, command *cobra.Command, args ...string) (string, error) {
	t.Helper()

	osOutput.Lock()
	defer osOutput.Unlock()

	out := &lockedBuffer{}
	command.SetOut(out)
	command.SetErr(out)
	command.SetArgs(args)

	restoreStdout := redirect(t, &os.Stdout, out)
	restoreStderr := redirect(t, &os.Stderr, out)

	_, err := command.ExecuteC()

	restoreStdout()
	restoreStderr()

	return out.String(), err
}

// redirect replaces file with a pipe, copying everything written into w.
// The returned func restores file and waits until all output is copied.
func redirect(t *testing.T, file **os.File, w io.Writer) func() {
	t.Helper()

	original := *file

	r, pw, err := os.Pipe()
	require.NoError(t, err)

	*file = pw

	done := make(chan struct{})

	go func() {
		_, _ = io.Copy(w, r)
		close(done)
	}()

	return func() {
		_ = pw.Close()
		<-done
		_ = r.Close()

		*file = original
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p) //nolint:wrapcheck
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
