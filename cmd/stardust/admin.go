package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"Stardust/internal/catalog"
	"Stardust/internal/model"
	"Stardust/internal/reconcile"
	"Stardust/internal/recorder"
	"Stardust/internal/store"
)

func init() {
	rootCmd.AddCommand(inspectCmd, deleteCmd, leaderboardCmd, catalogCmd)
	catalogCmd.AddCommand(catalogDumpCmd, catalogSeedCmd)
	inspectCmd.Flags().Int("history", 10, "Number of journal entries to show")
	leaderboardCmd.Flags().Int("limit", 10, "Number of rows")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect PLAYER_ID",
	Short: "Print a player's reconciled state as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := context.Background()
		st, settings, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := st.FetchPlayer(ctx, args[0])
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("player %s: %w", args[0], store.ErrNotFound)
		}
		res, err := reconcile.Load(snap, reconcile.Options{
			PlayerID:  args[0],
			MaxEnergy: cfg.Game.MaxEnergy,
			Catalogs:  loadCatalogs(ctx, cfg, settings),
			Rules:     cfg.Rules(),
			Now:       time.Now(),
		})
		if err != nil {
			return err
		}

		out := struct {
			Player        model.Player           `json:"player"`
			OfflineIncome float64                `json:"offline_income"`
			History       []recorder.ActionEvent `json:"history,omitempty"`
		}{Player: res.Player, OfflineIncome: res.OfflineIncome}

		if n, _ := cmd.Flags().GetInt("history"); n > 0 {
			journal := openJournal(cfg)
			defer journal.Close()
			out.History, err = journal.RecentActions(args[0], n)
			if err != nil {
				return err
			}
		}
		return printJSON(out)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete PLAYER_ID",
	Short: "Delete a player's stored row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, _, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.DeletePlayer(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted player %s\n", args[0])
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the top players by balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, _, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := st.Leaderboard(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(os.Stdout, "%3d  %-24s  lvl %2d  %.0f\n", e.Rank, e.DisplayName, e.Level, e.Balance)
		}
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or seed the game catalogs",
}

var catalogDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the resolved catalogs as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, settings, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return printJSON(loadCatalogs(context.Background(), cfg, settings))
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed [FILE]",
	Short: "Store catalogs in the SQLite settings table (defaults when FILE is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, settings, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if settings == nil {
			return fmt.Errorf("catalog seed needs the sqlite backend")
		}

		var remote model.RemoteCatalogs
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &remote); err != nil {
				return fmt.Errorf("parse catalogs: %w", err)
			}
		} else {
			d := catalog.Defaults()
			remote = model.RemoteCatalogs{
				Upgrades:     d.Upgrades,
				Deals:        d.Deals,
				Tasks:        d.Tasks,
				DailyRewards: d.DailyRewards,
				Admin:        &d.Admin,
			}
		}
		if err := settings.SaveCatalogs(context.Background(), remote); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Catalogs saved")
		return nil
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
