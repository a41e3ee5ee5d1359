package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
)

func findCommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not registered under %q", name, parent.Name())
	return nil
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "patreg", root.Name())

	load := findCommand(t, root, "load")
	findCommand(t, load, "patents")
	findCommand(t, load, "persons")
	findCommand(t, load, "ownership")

	findCommand(t, root, "stats")
	findCommand(t, root, "serve")
}

func TestRootPersistentFlags(t *testing.T) {
	root := NewRootCommand()
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestLoadSubcommandFlags(t *testing.T) {
	root := NewRootCommand()
	load := findCommand(t, root, "load")

	for _, name := range []string{"patents", "persons", "ownership"} {
		sub := findCommand(t, load, name)
		assert.NotNil(t, sub.Flags().Lookup("chunk-size"), name)
		assert.NotNil(t, sub.Flags().Lookup("delimiter"), name)
		assert.NotNil(t, sub.Flags().Lookup("yes"), name)
	}
}

// The registries do not share a delimiter: patent and ownership exports are
// plain comma CSV, the entity registry is semicolon-separated. Opening a comma
// file with ';' collapses the header into one column and fails schema
// detection, so each subcommand carries the right default.
func TestLoadDelimiterDefaults(t *testing.T) {
	root := NewRootCommand()
	load := findCommand(t, root, "load")

	defaults := map[string]string{
		"patents":   ",",
		"persons":   ";",
		"ownership": ",",
	}
	for name, want := range defaults {
		sub := findCommand(t, load, name)
		flag := sub.Flags().Lookup("delimiter")
		require.NotNil(t, flag, name)
		assert.Equal(t, want, flag.DefValue, name)
	}
}

func TestStatsCommandRequiresEntity(t *testing.T) {
	root := NewRootCommand()
	statsCmd := findCommand(t, root, "stats")
	assert.Error(t, statsCmd.Args(statsCmd, nil))
	assert.NoError(t, statsCmd.Args(statsCmd, []string{"patents"}))
}

// fakeCountStore reports a fixed record count.
type fakeCountStore struct {
	count int64
}

func (s *fakeCountStore) InsertBatch(context.Context, []*patent.Patent) error { return nil }
func (s *fakeCountStore) CountAll(context.Context) (int64, error)             { return s.count, nil }

func confirmTestCmd(input string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&bytes.Buffer{})
	return cmd
}

func TestConfirmExistingEmptyStore(t *testing.T) {
	env := &loadEnv{runCtx: context.Background()}
	err := confirmExisting[*patent.Patent](confirmTestCmd(""), env, &fakeCountStore{count: 0}, false)
	assert.NoError(t, err)
}

func TestConfirmExistingSkippedWithYesFlag(t *testing.T) {
	env := &loadEnv{runCtx: context.Background()}
	err := confirmExisting[*patent.Patent](confirmTestCmd(""), env, &fakeCountStore{count: 42}, true)
	assert.NoError(t, err)
}

func TestConfirmExistingAccepted(t *testing.T) {
	env := &loadEnv{runCtx: context.Background()}
	err := confirmExisting[*patent.Patent](confirmTestCmd("y\n"), env, &fakeCountStore{count: 42}, false)
	assert.NoError(t, err)
}

func TestConfirmExistingDeclined(t *testing.T) {
	env := &loadEnv{runCtx: context.Background()}

	cmd := confirmTestCmd("n\n")
	err := confirmExisting[*patent.Patent](cmd, env, &fakeCountStore{count: 42}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")

	out := cmd.OutOrStdout().(*bytes.Buffer).String()
	assert.Contains(t, out, "42 records")
}
