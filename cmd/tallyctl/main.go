package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallybook/tallybook/internal/apiclient"
	"github.com/tallybook/tallybook/internal/app"
	"github.com/tallybook/tallybook/internal/shared"
)

// globals holds the connection flags shared by every subcommand.
type globals struct {
	apiURL     string
	token      string
	redisAddr  string
	httpClient *http.Client
}

func (g *globals) client() *apiclient.Client {
	return apiclient.NewClient(g.apiURL, g.token, g.httpClient)
}

func newRootCmd(cfg *app.Config) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "tallyctl",
		Short:         "Billing and reporting from the command line",
		Long:          "tallyctl talks to a tallybook server: it records receipts, lists invoices, renders reports and triggers background jobs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.apiURL, "api", cfg.APIBaseURL, "tallybook server base URL")
	root.PersistentFlags().StringVar(&g.token, "token", cfg.APIToken, "API bearer token")
	root.PersistentFlags().StringVar(&g.redisAddr, "redis", cfg.RedisAddr, "Redis address for job commands")

	root.AddCommand(
		newReportCmd(g),
		newInvoicesCmd(g),
		newReceiptsCmd(g),
		newJobsCmd(g),
	)
	return root
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tallyctl: load config: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", shared.UserSafeMessage(err))
		os.Exit(1)
	}
}
