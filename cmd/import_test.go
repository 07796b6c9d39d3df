package cmd

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/pkg/models"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := fsys
	mem := afero.NewMemMapFs()
	fsys = mem
	t.Cleanup(func() { fsys = prev })
	return mem
}

func scheduleJSON(t *testing.T) []byte {
	t.Helper()
	resp := sampleSchedule()
	resp.Channels[1].Programs = append(resp.Channels[1].Programs,
		models.Program{ID: "broken", Start: local(3, 12, 0), End: local(3, 12, 0), Title: "Broken"})
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return data
}

func TestImport_FromFile(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/in/schedule.json", scheduleJSON(t), 0o644))
	path := filepath.Join(t.TempDir(), "schedule.db")

	output, err := execute(t, "import", "/in/schedule.json", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Imported 2 channels, 6 programs, 1 reservations")
	assert.Contains(t, output, "Skipped 1 invalid programs")

	database, err := db.New(path)
	require.NoError(t, err)
	defer database.Close()

	p, err := database.GetProgram(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, models.SubStream, p.Stream)
	assert.Equal(t, "bs1", p.ChannelID)

	channels, err := database.Channels(context.Background(), models.ChannelFilter{})
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.True(t, channels[1].HasSubStream)
}

func TestImport_FromStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.db")
	rootCmd.SetIn(strings.NewReader(string(scheduleJSON(t))))

	output, err := execute(t, "import", "-", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Imported 2 channels")
}

func TestImport_Errors(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/bad.json", []byte("{not json"), 0o644))
	path := filepath.Join(t.TempDir(), "schedule.db")

	_, err := execute(t, "import", "/missing.json", "--db", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read /missing.json")

	_, err = execute(t, "import", "/bad.json", "--db", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse /bad.json")

	_, err = execute(t, "import", "--db", path)
	assert.Error(t, err)
}
