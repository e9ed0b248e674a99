package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rplaut/tally/internal/config"
	"github.com/rplaut/tally/internal/user"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var demoUsers = []struct {
	input   user.CreateUserInput
	counter int
}{
	{
		input:   user.CreateUserInput{Username: "bob", Team: "PMO", Role: "Engineer", GitHubUsername: "rplaut"},
		counter: 5,
	},
	{
		input:   user.CreateUserInput{Username: "alice", Team: "ENGINEERING", Role: "Senior Director of Engineering"},
		counter: 12,
	},
	{
		input: user.CreateUserInput{Username: "carol", Team: "PRODUCT", Role: "VP of Product"},
	},
	{
		input: user.CreateUserInput{Username: "dave", Team: "PMO", Role: "Program Manager"},
	},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := user.NewStore(pool)

	// Check if seed has already run.
	existing, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("checking existing users: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("demo data already exists, skipping seed")
		return nil
	}

	for _, d := range demoUsers {
		u, err := store.Create(ctx, d.input)
		if err != nil {
			return fmt.Errorf("creating user %q: %w", d.input.Username, err)
		}
		if d.counter > 0 {
			if err := store.UpdateCounter(ctx, u.ID, d.counter); err != nil {
				return fmt.Errorf("setting counter for %q: %w", u.Username, err)
			}
		}
		slog.Info("created user", "username", u.Username, "team", u.Team)
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Users: %d created\n", len(demoUsers))
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  open http://localhost:%d/\n", cfg.Server.Port)
	fmt.Printf("  curl -X POST -d '{\"username\":\"bob\"}' http://localhost:%d/api/v1/login\n", cfg.Server.Port)

	return nil
}
