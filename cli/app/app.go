package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dockhand/cmdutil"
	"dockhand/provision"
	"dockhand/types"
)

// NewAppCmd provisions one application on this host. Arguments are
// positional to match the workflow invocation contract:
// dockhand app <domain> <port> <metrics_path> <ssh_public_key>
func NewAppCmd(svc provision.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "app <domain> <port> <metrics_path> <ssh_public_key>",
		Short: "Provision an application: account, route, unit and scrape target",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return types.Validationf("port %q is not a number", args[1])
			}

			params := types.ProvisionParams{
				Domain:       args[0],
				Port:         port,
				MetricsPath:  args[2],
				SSHPublicKey: args[3],
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			cmdutil.StartLoading(fmt.Sprintf("Provisioning %s ", params.Domain))
			summary, err := svc.Provision(ctx, params)
			cmdutil.StopLoading()
			if err != nil {
				return err
			}

			cmdutil.PrintS(fmt.Sprintf("Application for %s provisioned successfully", summary.Domain))
			cmdutil.PrintSummary("Provisioning summary", [][2]string{
				{"Run", summary.RunID.String()},
				{"Domain", summary.Domain},
				{"Identity", summary.Identity},
				{"Port", strconv.Itoa(summary.Port)},
				{"Metrics path", summary.MetricsPath},
				{"Service", summary.ServiceName},
				{"Home", summary.HomeDir},
				{"Route", summary.RoutePath},
				{"Unit", summary.UnitPath},
				{"Scrape config", summary.ScrapePath},
			})
			return nil
		},
	}
}
