// Package provision creates and upgrades the per-application artifacts
// on a host: OS account, nginx route, systemd unit, Prometheus scrape
// entry, and later the TLS rewrite of the route. Every step is
// idempotent; a re-run with the same inputs converges on the same
// files.
package provision

import (
	"context"

	"github.com/go-playground/validator/v10"

	"dockhand/config"
	"dockhand/metadata"
	"dockhand/system"
	"dockhand/types"
)

type (
	Service interface {
		Provision(ctx context.Context, params types.ProvisionParams) (*types.ProvisionSummary, error)
		ProvisionTLS(ctx context.Context, params types.TLSParams) (*types.TLSSummary, error)
	}

	service struct {
		paths    config.Paths
		runner   system.Runner
		resolver Resolver
		prober   Prober
		store    metadata.Client
		validate *validator.Validate
	}
)

// New wires a provisioning service. store may be nil; the metadata
// inventory is advisory and all inventory interactions are skipped
// without it.
func New(paths config.Paths, runner system.Runner, resolver Resolver, prober Prober, store metadata.Client) Service {
	return &service{
		paths:    paths,
		runner:   runner,
		resolver: resolver,
		prober:   prober,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *service) structErr(err error) error {
	if err == nil {
		return nil
	}
	if fields, ok := err.(validator.ValidationErrors); ok && len(fields) > 0 {
		return types.Validationf("invalid value for %s", fields[0].Field())
	}
	return types.Validationf("%v", err)
}
