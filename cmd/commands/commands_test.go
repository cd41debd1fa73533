package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dohr-michael/tasker/internal/config"
	"github.com/dohr-michael/tasker/internal/tasks"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"serve", "run", "read", "exec", "ops", "status", "mcp-serve"}, names)
}

func TestOperationUsageCoversEveryOperation(t *testing.T) {
	for _, op := range tasks.Operations() {
		assert.NotEmpty(t, operationUsage[op], "missing usage for %s", op)
	}
}

func TestNewAppExecutesWithoutCredentials(t *testing.T) {
	t.Setenv("AIPROXY_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Data.Dir, "contacts.json"),
		[]byte(`[{"first_name":"B","last_name":"Lee"},{"first_name":"A","last_name":"Lee"}]`), 0o644))

	a, err := newApp(cfg)
	require.NoError(t, err)

	res, err := a.dispatcher.Execute(context.Background(), tasks.OpSortContacts)
	require.NoError(t, err)
	assert.Equal(t, "Contacts sorted", res.Message)
}

func TestLazyClassifierReportsMissingCredentials(t *testing.T) {
	t.Setenv("AIPROXY_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()

	a, err := newApp(cfg)
	require.NoError(t, err)

	out := a.dispatcher.Dispatch(context.Background(), "sort the contacts")
	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, tasks.ErrClassification)
	assert.Equal(t, tasks.StateClassifyFail, out.State)
}
