package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/pkg/models"
)

func init() {
	// Register custom completions after all commands are initialized
	cobra.OnInitialize(registerCompletions)
}

func registerCompletions() {
	// --db flag: complete with .db files
	rootCmd.RegisterFlagCompletionFunc("db", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"db"}, cobra.ShellCompDirectiveFilterFileExt
	})

	// --config flag: complete with yaml files
	rootCmd.RegisterFlagCompletionFunc("config", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	importCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	registerChannelCompletions(listCmd)
	registerChannelCompletions(gridCmd)
	registerDateCompletions(listCmd)
	registerDateCompletions(windowCmd)

	reserveCmd.RegisterFlagCompletionFunc("status", fixedCompletions(
		"none\tremove the reservation",
		"enabled\trecord the program",
		"disabled\tkeep the reservation without recording",
		"recording\trecording in progress",
	))
	reserveCmd.RegisterFlagCompletionFunc("availability", fixedCompletions(
		"full\tthe whole program can be recorded",
		"partial\tonly part of the program can be recorded",
		"unavailable\tthe program cannot be recorded",
	))
}

// channelsFromDB lists the channels of the local database
func channelsFromDB() []models.Channel {
	database, err := db.NewDatabase(dbPath)
	if err != nil {
		return nil
	}
	defer database.Close()

	channels, err := database.Channels(context.Background(), models.ChannelFilter{})
	if err != nil {
		return nil
	}
	return channels
}

// completeGroup returns completions for --group
func completeGroup(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	counts := make(map[string]int)
	for _, ch := range channelsFromDB() {
		if ch.Group != "" {
			counts[ch.Group]++
		}
	}

	completions := make([]string, 0, len(counts))
	for group, n := range counts {
		completions = append(completions, fmt.Sprintf("%s\t%d channels", group, n))
	}
	sort.Strings(completions)
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeChannel returns completions for --channel
func completeChannel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, ch := range channelsFromDB() {
		completions = append(completions, fmt.Sprintf("%s\t%s", ch.ID, ch.Name))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func registerChannelCompletions(cmd *cobra.Command) {
	cmd.RegisterFlagCompletionFunc("group", completeGroup)
	cmd.RegisterFlagCompletionFunc("channel", completeChannel)
}

func registerDateCompletions(cmd *cobra.Command) {
	cmd.RegisterFlagCompletionFunc("date", fixedCompletions(
		"today\ttoday's broadcast day",
		"yesterday\tthe previous broadcast day",
		"tomorrow\tthe next broadcast day",
	))
}

func fixedCompletions(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
