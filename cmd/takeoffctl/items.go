package main

import (
	"fmt"

	"github.com/spf13/cobra"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"takeoff/internal/common/config"
	"takeoff/internal/takeoff/repository"
)

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage the local item catalog",
	}
	cmd.AddCommand(newItemsImportCmd(), newItemsListCmd())
	return cmd
}

func openRepository(cmd *cobra.Command, dbPath string) (*repository.Repository, func(), error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		dbPath = cfg.DBPath
	}
	db, err := repository.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	repo := repository.New(db)
	if err := repo.Init(cmd.Context()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init db: %w", err)
	}
	return repo, func() { db.Close() }, nil
}

func newItemsImportCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import <items.yaml>",
		Short: "Insert or update catalog items from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadItems(args[0])
			if err != nil {
				return err
			}
			repo, closeDB, err := openRepository(cmd, dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := repo.ImportItems(cmd.Context(), items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d items\n", n, len(items))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to TAKEOFF_DB_PATH)")
	return cmd
}

func newItemsListCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openRepository(cmd, dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			items, err := repo.ListItems(cmd.Context())
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", it.ID, it.SystemType, it.Category, it.DisplayName())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to TAKEOFF_DB_PATH)")
	return cmd
}
