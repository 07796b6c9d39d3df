package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/pkg/models"
)

func TestShow_ProgramWithNeighbors(t *testing.T) {
	path := seedDB(t)

	output, err := execute(t, "show", "p2", "--db", path)
	require.NoError(t, err)

	assert.Contains(t, output, "Title: Drama Hour")
	assert.Contains(t, output, "Channel: NHK")
	assert.Contains(t, output, "Airs: Wed 2024-01-03 06:00-08:00")
	assert.Contains(t, output, "Genre: drama")
	assert.Contains(t, output, "Reservation: enabled (full)")
	assert.Contains(t, output, "Description: A family saga.")
	assert.Contains(t, output, "───")

	before := strings.Index(output, "04:00-06:00 Morning News")
	self := strings.Index(output, "06:00-08:00 Drama Hour")
	after := strings.Index(output, "08:00-09:00 Quiz Time")
	require.True(t, before >= 0 && self >= 0 && after >= 0, output)
	assert.True(t, before < self && self < after, "neighbors should surround the program")
	assert.NotContains(t, output, "Night Movie")
}

func TestShow_SubStreamWithoutNeighbors(t *testing.T) {
	path := seedDB(t)

	output, err := execute(t, "show", "b2", "--db", path)
	require.NoError(t, err)

	assert.Contains(t, output, "Channel: BS1 (sub)")
	assert.Contains(t, output, "Reservation: (none)")
	assert.NotContains(t, output, "───")
	assert.NotContains(t, output, "Live Baseball")
}

func TestShow_UnknownProgram(t *testing.T) {
	_, err := execute(t, "show", "nope", "--db", seedDB(t))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestNeighbors(t *testing.T) {
	resp := sampleSchedule()
	p := resp.Channels[0].Programs[1]
	p.ChannelID = "nhk"

	before, after := neighbors(resp, p)

	require.Len(t, before, 1)
	assert.Equal(t, "p1", before[0].ID)
	assert.Equal(t, []string{"p3", "p4"}, programIDs(after))
}

func programIDs(programs []models.Program) []string {
	ids := make([]string, len(programs))
	for i, p := range programs {
		ids[i] = p.ID
	}
	return ids
}
