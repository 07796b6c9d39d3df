package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesThenReportsUpToDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "schedule.db")

	output, err := execute(t, "init-db", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "Database initialized: "+path+"\n", output)

	output, err = execute(t, "init-db", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Database up to date (schema ")
	assert.Contains(t, output, path)
}
