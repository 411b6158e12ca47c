package tls

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dockhand/cmdutil"
	"dockhand/provision"
	"dockhand/types"
)

// NewTLSCmd upgrades a provisioned application's route to HTTPS:
// dockhand tls <domain> <host_ip> [identity]
func NewTLSCmd(svc provision.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "tls <domain> <host_ip> [identity]",
		Short: "Issue a certificate and upgrade the route to HTTPS",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := types.TLSParams{
				Domain: args[0],
				HostIP: args[1],
			}
			if len(args) == 3 {
				params.Identity = args[2]
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			cmdutil.StartLoading(fmt.Sprintf("Issuing certificate for %s ", params.Domain))
			summary, err := svc.ProvisionTLS(ctx, params)
			cmdutil.StopLoading()
			if err != nil {
				var derr *types.Error
				if errors.As(err, &derr) && derr.Remediation != "" {
					cmdutil.PrintW(derr.Remediation)
				}
				return err
			}

			cmdutil.PrintS(fmt.Sprintf("TLS enabled for %s", summary.Domain))
			cmdutil.PrintSummary("TLS summary", [][2]string{
				{"Run", summary.RunID.String()},
				{"Domain", summary.Domain},
				{"Hosts", strings.Join(summary.Hosts, ", ")},
				{"Identity", summary.Identity},
				{"Port", strconv.Itoa(summary.Port)},
				{"Route", summary.RoutePath},
				{"Certificate", summary.CertificatePath},
			})
			return nil
		},
	}
}
