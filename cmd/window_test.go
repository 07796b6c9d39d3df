package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_ExtendedToday(t *testing.T) {
	output, err := execute(t, "window", "--now", "2024-01-03T20:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, output, "Broadcast date: Wed 2024-01-03\n")
	assert.Contains(t, output, "Window:         2024-01-03 16:00 - 2024-01-05 04:00 (36h)\n")
	assert.Contains(t, output, "Extended:       yes\n")
	assert.Contains(t, output, "Eligible:       yes (adjusted hour 16)\n")
	assert.Contains(t, output, "Now:            20:00, 4.00 hours into the window\n")

	assert.Contains(t, output, "\n   16:00\n")
	assert.Contains(t, output, "\n   20:00  01/03 Wed\n")
	assert.Contains(t, output, "\n    4:00  01/04 Thu\n")
	assert.Equal(t, 36, strings.Count(output, ":00\n")+strings.Count(output, ":00  "))
}

func TestWindow_OtherDateNotExtended(t *testing.T) {
	output, err := execute(t, "window", "--now", "2024-01-03T20:00:00Z", "--date", "2024-01-05")
	require.NoError(t, err)

	assert.Contains(t, output, "Window:         2024-01-05 04:00 - 2024-01-06 04:00 (24h)\n")
	assert.Contains(t, output, "Extended:       no\n")
	assert.Contains(t, output, "Eligible:       no (adjusted hour 16)\n")
	assert.Contains(t, output, "Now:            20:00, outside the window\n")
}

func TestWindow_ForcedExtendedWithClock28(t *testing.T) {
	output, err := execute(t, "window", "--now", "2024-01-03T09:30:00Z", "--extended", "--clock28")
	require.NoError(t, err)

	assert.Contains(t, output, "Extended:       yes\n")
	assert.Contains(t, output, "Eligible:       no (adjusted hour 5)\n")
	assert.Contains(t, output, "Now:            09:30, outside the window\n")
	assert.Contains(t, output, "\n   26:00\n")
	assert.NotContains(t, output, "\n    2:00\n")
}

func TestWindow_InvalidNow(t *testing.T) {
	_, err := execute(t, "window", "--now", "tonight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --now")
}
