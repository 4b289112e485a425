package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mentionbot/internal/config"
	"mentionbot/internal/provider"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the bot's configuration and backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("MentionBot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed, failed := 0, 0

			cfg, err := config.Load(configPath)
			if err != nil {
				printFail("Config load", err.Error())
				fmt.Printf("\n%d passed, %d failed\n", passed, failed+1)
				return nil
			}
			printPass("Config load", "ok")
			passed++

			if err := cfg.Validate(); err != nil {
				printFail("Config validation", err.Error())
				failed++
			} else {
				printPass("Config validation", "valid")
				passed++
			}

			// Storage directory writable.
			probe := filepath.Join(cfg.Storage.Dir, ".doctor-probe")
			if err := os.MkdirAll(cfg.Storage.Dir, 0o700); err != nil {
				printFail("Token storage", err.Error())
				failed++
			} else if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
				printFail("Token storage", fmt.Sprintf("not writable: %v", err))
				failed++
			} else {
				os.Remove(probe)
				printPass("Token storage", cfg.Storage.Dir)
				passed++
			}

			// Provider reachable.
			if ai, err := provider.New(cfg.Provider, cfg.General.BotName, logger); err != nil {
				printFail("Provider", err.Error())
				failed++
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := ai.Healthy(ctx); err != nil {
					printFail("Provider "+ai.Name(), err.Error())
					failed++
				} else {
					printPass("Provider "+ai.Name(), "reachable")
					passed++
				}
			}

			fmt.Printf("\n%d passed, %d failed\n", passed, failed)
			return nil
		},
	}
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}
