package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/buildinfo"
	"github.com/cashbook-dev/cashbook/internal/config"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	access     string
	actor      string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "cashbook",
		Short:   "Cash ledger for accounts and sites",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", envOr("CASHBOOK_CONFIG", config.FileName), "path to cashbook.yaml")
	pf.StringVar(&flags.access, "access", envOr("CASHBOOK_ACCESS", "read-only"), "granted capability: read-only or read-write")
	pf.StringVar(&flags.actor, "actor", envOr("CASHBOOK_ACTOR", os.Getenv("USER")), "who is recording the change")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(flags),
		newCategoryCommand(flags),
		newTxnCommand(flags),
		newStatsCommand(flags),
		newExportCommand(flags),
		newImportCommand(flags),
		newSetupCommand(flags),
		newArchiveCommand(flags),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
