package identity

import (
	"github.com/spf13/cobra"

	"dockhand/cmdutil"
	"dockhand/identity"
	"dockhand/types"
)

// NewIdentityCmd prints the identity a domain derives to, so workflows
// can precompute artifact names without re-implementing the mapping.
func NewIdentityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity <domain>",
		Short: "Print the identity derived from a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := identity.Derive(args[0])
			if id == "" {
				return types.Validationf("domain %q yields an empty identity", args[0])
			}
			cmdutil.Print(id)
			return nil
		},
	}
}
