package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/accounts"
	"github.com/cashbook-dev/cashbook/internal/config"
	"github.com/cashbook-dev/cashbook/internal/gitops"
	"github.com/cashbook-dev/cashbook/internal/store/sqlite"
)

func newInitCommand() *cobra.Command {
	var (
		driver string
		useGit bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cashbook ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, driver, useGit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized cashbook at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "store", config.DriverSQLite, "store driver: sqlite or memory")
	cmd.Flags().BoolVar(&useGit, "git", false, "track config, chart and archived journals in git")

	return cmd
}

func runInit(dir, driver string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Store.Driver = driver
	if driver == config.DriverMemory {
		cfg.Store.Path = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create directory structure.
	dirs := []string{
		"data",
		"logs",
		cfg.Import.Dir,
		filepath.Join(cfg.Import.Dir, "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := accounts.Save(filepath.Join(dir, accounts.FileName), accounts.DefaultChart()); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}

	gitignore := "data/\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Create the database so schema problems surface at init time.
	if driver == config.DriverSQLite {
		st, err := sqlite.Open(filepath.Join(dir, cfg.Store.Path))
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		if err := st.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}

	if useGit {
		repo, err := gitops.Init(dir)
		if err != nil {
			return err
		}
		tracked := []string{config.FileName, accounts.FileName, ".gitignore"}
		if _, err := repo.Commit(tracked, "init: new cashbook", os.Getenv("USER")); err != nil {
			return err
		}
	}

	return nil
}
