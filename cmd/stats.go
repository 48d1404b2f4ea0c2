package cmd

import (
	"errors"
	"fmt"

	"libexport/db"
	"libexport/model"
	"libexport/repository"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Playback statistics database tools",
}

var statsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the playback_stats table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.StatsDBConfigured() {
			return errors.New("DB_HOST is not set")
		}
		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(&model.PlaybackStat{}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "playback_stats table is up to date")
		return nil
	},
}

var statsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print how many tracks have playback statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.StatsDBConfigured() {
			return errors.New("DB_HOST is not set")
		}
		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		stats, err := repository.NewGormPlaybackStatsRepository(db.GormDB).PlaybackStats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d tracks with playback statistics\n", len(stats))
		return nil
	},
}

func init() {
	statsCmd.AddCommand(statsMigrateCmd, statsCountCmd)
	rootCmd.AddCommand(statsCmd)
}
