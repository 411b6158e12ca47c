// Package cli assembles the dockhand command tree. Commands take
// positional arguments because they are invoked from CI workflows, not
// by humans tab-completing flags.
package cli

import (
	"github.com/spf13/cobra"

	"dockhand/cli/app"
	"dockhand/cli/identity"
	"dockhand/cli/metadata"
	"dockhand/cli/tls"
	"dockhand/config"
	"dockhand/provision"
	"dockhand/system"
)

func New(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dockhand",
		Short:         "dockhand - single-host application provisioning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runner := system.NewRunner()
	svc := provision.New(cfg.Paths, runner, provision.NewResolver(), provision.NewProber(), maybeStore(cfg))

	cmd.AddCommand(app.NewAppCmd(svc))
	cmd.AddCommand(tls.NewTLSCmd(svc))
	cmd.AddCommand(metadata.NewMetadataCmd(cfg))
	cmd.AddCommand(identity.NewIdentityCmd())
	return cmd
}
