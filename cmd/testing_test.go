package cmd_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/todo/cmd"
)

var errCmdFailed = errors.New("cmd failed")

func TestTestExecute(t *testing.T) {
	t.Parallel()

	t.Run("command writers", func(t *testing.T) {
		t.Parallel()

		rootCmd := &cobra.Command{Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "to out")
			fmt.Fprintln(cmd.ErrOrStderr(), "to err")
		}}

		output, err := cmd.TestExecute(t, rootCmd)
		assert.NoError(t, err)
		assert.Contains(t, output, "to out")
		assert.Contains(t, output, "to err")
	})

	t.Run("os writers", func(t *testing.T) {
		t.Parallel()

		rootCmd := &cobra.Command{Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, "to stdout")
			fmt.Fprintln(os.Stderr, "to stderr")
		}}

		output, err := cmd.TestExecute(t, rootCmd)
		assert.NoError(t, err)
		assert.Contains(t, output, "to stdout")
		assert.Contains(t, output, "to stderr")
	})

	t.Run("large output", func(t *testing.T) {
		t.Parallel()

		line := strings.Repeat("x", 1023) + "\n"

		rootCmd := &cobra.Command{Run: func(_ *cobra.Command, _ []string) {
			for range 256 {
				fmt.Fprint(os.Stdout, line)
			}
		}}

		output, err := cmd.TestExecute(t, rootCmd)
		assert.NoError(t, err)
		assert.Len(t, output, 256*1024, "should not block on a full pipe")
	})

	t.Run("return error of command", func(t *testing.T) {
		t.Parallel()

		rootCmd := &cobra.Command{RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 2 {
				return fmt.Errorf("%w", errCmdFailed)
			}

			return nil
		}}

		output, err := cmd.TestExecute(t, rootCmd, "some", "args")
		assert.ErrorIs(t, err, errCmdFailed)
		assert.Contains(t, output, errCmdFailed.Error())
	})

	t.Run("execute in parallel", func(t *testing.T) {
		t.Parallel()

		wg := sync.WaitGroup{}

		for range 10 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				rootCmd := &cobra.Command{Run: func(cmd *cobra.Command, _ []string) {
					fmt.Fprintln(cmd.OutOrStdout(), "Hello World")
				}}

				output, err := cmd.TestExecute(t, rootCmd)
				assert.NoError(t, err)
				assert.Contains(t, output, "Hello World")
			}()
		}

		wg.Wait()
	})
}
