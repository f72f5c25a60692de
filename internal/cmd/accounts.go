package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/config"
	"github.com/red-hand/midenclaim/internal/errors"
	"github.com/red-hand/midenclaim/internal/logging"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Show the wallet to proxy assignment",
	Long: `Load the wallets and proxies the way "run" does and print which proxy
each account is routed through. Proxies are handed out round-robin.`,
	Args: cobra.NoArgs,
	RunE: runAccounts,
}

var accountsOnly string

func init() {
	rootCmd.AddCommand(accountsCmd)

	accountsCmd.Flags().StringVar(&accountsOnly, "only", "", "Only list accounts whose wallet or number matches this glob")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	accounts, proxies, err := loadAccounts(cfg.Inputs, logging.New(cmd.ErrOrStderr(), "warn"))
	if err != nil {
		return err
	}
	if accountsOnly != "" {
		if accounts, err = filterAccounts(accounts, accountsOnly); err != nil {
			return err
		}
	}

	direct := 0
	for _, a := range accounts {
		if a.Route.IsDirect() {
			direct++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wallets: %d   Proxies: %d   Direct: %d\n", len(accounts), len(proxies), direct)
	if len(accounts) == 0 {
		return nil
	}
	fmt.Fprintln(out, accountsTable(accounts))
	return nil
}

func accountsTable(accounts []account.Account) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "WALLET", "ROUTE")
	for _, a := range accounts {
		t.Row(strconv.Itoa(a.ID), a.Wallet, a.Route.String())
	}
	return t.String()
}
