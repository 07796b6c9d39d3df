package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/logging"
	"github.com/chris/tvgrid/pkg/models"
)

var (
	reserveStatus       string
	reserveAvailability string
)

var reserveCmd = &cobra.Command{
	Use:   "reserve <program-id>",
	Short: "Set the recording reservation of a program",
	Long: `Records the scheduler state of a program in the database, or on the server when
source.remote_url is set. --status none removes the reservation.`,
	Args: cobra.ExactArgs(1),
	RunE: runReserve,
}

func init() {
	rootCmd.AddCommand(reserveCmd)
	reserveCmd.Flags().StringVarP(&reserveStatus, "status", "s", "enabled", "Reservation status: none, enabled, disabled or recording")
	reserveCmd.Flags().StringVarP(&reserveAvailability, "availability", "a", "full", "Recording availability: full, partial or unavailable")
}

func runReserve(cmd *cobra.Command, args []string) error {
	status, err := models.ParseReservationStatus(reserveStatus)
	if err != nil {
		return err
	}
	availability, err := models.ParseAvailability(reserveAvailability)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src, err := openSource(cfg, logging.Discard())
	if err != nil {
		return err
	}
	defer src.Close()

	programID := args[0]
	r := models.Reservation{Status: status, Availability: availability}
	if err := src.reserve(cmd.Context(), programID, r); err != nil {
		return fmt.Errorf("failed to reserve %s: %w", programID, err)
	}

	if status == models.ReservationNone {
		fmt.Fprintf(cmd.OutOrStdout(), "Reservation removed: %s\n", programID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reserved %s (%s, %s)\n", programID, status, availability)
	return nil
}
