package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stardust",
	Short: "Stardust incremental clicker game server",
	Long: `Stardust runs one player's clicker economy: passive income, hold-to-earn,
upgrades, deals, tasks and withdrawals, persisted to SQLite or JSON files and
administered over a Telegram bot.`,
	SilenceUsage: true,
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringP("config", "c", defaultPath, "Path to config file (.yaml or .toml)")
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}
