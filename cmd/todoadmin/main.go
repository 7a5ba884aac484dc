package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophtodo/internal/admin"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server"
	"github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	repos := repomanager.NewPostgresRepositoryManager()

	db, err := server.OpenDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := server.NewStack(cfg, db, repos, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	migrate := func(ctx context.Context) error { return repos.RunMigrations(ctx, db) }
	app := admin.NewApp(st.Users, migrate, os.Stdin, os.Stdout, int(os.Stdin.Fd()))

	return app.Run(ctx, args)
}
