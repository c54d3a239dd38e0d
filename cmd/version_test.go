package cmd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/todo/cmd"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	// go test binaries carry no vcs settings, so only the @latest branch can be covered here.

	t.Run("show version", func(t *testing.T) {
		t.Parallel()

		output, err := cmd.TestExecute(t, cmd.NewRootCmd(), "version")
		assert.NoError(t, err)
		assert.Contains(t, output, "todo version: @latest from ")
	})

	t.Run("no sub commands", func(t *testing.T) {
		t.Parallel()

		output, err := cmd.TestExecute(t, cmd.NewRootCmd(), "version", "sub-command")
		assert.Error(t, err)
		assert.Contains(t, output, "unknown command")
	})

	t.Run("help does not show flags in use line", func(t *testing.T) {
		t.Parallel()

		output, err := cmd.TestExecute(t, cmd.NewRootCmd(), "version", "-h")
		assert.NoError(t, err)
		assert.Contains(t, output, "Print the todo version")
		assert.NotContains(t, output, "version [flags]")
	})
}
