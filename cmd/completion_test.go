package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestCompleteGroupAndChannel(t *testing.T) {
	t.Setenv("DB_IMPL", "")
	prev := dbPath
	dbPath = seedDB(t)
	t.Cleanup(func() { dbPath = prev })

	groups, directive := completeGroup(listCmd, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{"bs\t1 channels", "terrestrial\t1 channels"}, groups)

	channels, _ := completeChannel(listCmd, nil, "")
	assert.Equal(t, []string{"nhk\tNHK", "bs1\tBS1"}, channels)
}

func TestCompleteGroup_NoDatabase(t *testing.T) {
	prev := dbPath
	dbPath = t.TempDir() + "/missing.db"
	t.Cleanup(func() { dbPath = prev })

	groups, _ := completeGroup(listCmd, nil, "")
	assert.Empty(t, groups)
}

func TestFixedCompletions(t *testing.T) {
	fn := fixedCompletions("a\tfirst", "b\tsecond")
	values, directive := fn(reserveCmd, nil, "")
	assert.Equal(t, []string{"a\tfirst", "b\tsecond"}, values)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}
