package provision

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"dockhand/artifacts"
	"dockhand/hostfile"
	"dockhand/identity"
	"dockhand/logger"
	"dockhand/types"
)

// ProvisionTLS upgrades an existing plaintext route to HTTPS: DNS
// check, certificate issuance, route rewrite at the original port, and
// an advisory reachability probe. It requires that Provision already
// ran for the domain.
func (s *service) ProvisionTLS(ctx context.Context, params types.TLSParams) (*types.TLSSummary, error) {
	if err := s.structErr(s.validate.Struct(params)); err != nil {
		return nil, err
	}

	id := params.Identity
	if id == "" {
		id = identity.Derive(params.Domain)
	}
	if id == "" {
		return nil, types.Validationf("domain %q yields an empty identity", params.Domain)
	}

	runID := uuid.New()
	log := logger.GetLogger().With(
		zap.String("run_id", runID.String()),
		zap.String("domain", params.Domain),
		zap.String("identity", id))

	hosts := []string{params.Domain}
	if identity.IsRootDomain(params.Domain) {
		hosts = append(hosts, "www."+params.Domain)
	}

	log.Info("validating dns")
	if err := s.checkDNS(params.Domain, params.HostIP, hosts); err != nil {
		return nil, err
	}

	log.Info("requesting certificate")
	if err := s.obtainCertificate(ctx, hosts); err != nil {
		return nil, err
	}

	log.Info("upgrading route to tls")
	routePath, port, err := s.upgradeRoute(ctx, id, params.Domain)
	if err != nil {
		return nil, err
	}

	log.Info("verifying https endpoint")
	if s.prober != nil {
		if err := s.prober.Probe(ctx, params.Domain); err != nil {
			log.Warn("https verification failed; certificate and route are installed, check manually", zap.Error(err))
		}
	}

	log.Info("tls provisioned", zap.Int("port", port))
	return &types.TLSSummary{
		RunID:           runID,
		Domain:          params.Domain,
		Identity:        id,
		Port:            port,
		RoutePath:       routePath,
		CertificatePath: artifacts.CertificatePath(params.Domain),
		Hosts:           hosts,
	}, nil
}

func (s *service) checkDNS(domain, hostIP string, hosts []string) error {
	ips, err := s.resolver.LookupA(domain)
	if err != nil || len(ips) == 0 {
		return types.Validationf("domain %s does not resolve", domain).
			WithRemediation("create an A record: %s -> %s, then wait for propagation before re-running", domain, hostIP)
	}
	if !lo.Contains(ips, hostIP) {
		return types.Validationf("domain %s resolves to %v, expected %s", domain, ips, hostIP).
			WithRemediation("point the A record for %s at %s; certificates cannot be issued while it targets another host", domain, hostIP)
	}

	for _, host := range hosts[1:] {
		wwwIPs, err := s.resolver.LookupA(host)
		if err != nil || !lo.Contains(wwwIPs, hostIP) {
			logger.Warn("alias does not resolve to this host; it will be covered by the certificate but unreachable",
				zap.String("host", host), zap.String("expected_ip", hostIP))
		}
	}
	return nil
}

func (s *service) obtainCertificate(ctx context.Context, hosts []string) error {
	args := []string{"certonly", "--nginx", "--non-interactive", "--agree-tos", "--register-unsafely-without-email"}
	for _, host := range hosts {
		args = append(args, "-d", host)
	}

	if err := s.runner.Run(ctx, "certbot", args...); err != nil {
		return types.Transportf(err, "certificate issuance failed for %v", hosts).
			WithRemediation("check that port 80 is reachable from the internet, that DNS has propagated, and that the Let's Encrypt rate limit (5 certificates per domain per week) is not exhausted")
	}
	return nil
}

func (s *service) upgradeRoute(ctx context.Context, id, domain string) (string, int, error) {
	availablePath := filepath.Join(s.paths.NginxAvailable, id)

	current, err := os.ReadFile(availablePath)
	if os.IsNotExist(err) {
		return "", 0, types.StateConflictf(
			"no route exists for identity %s; run the application provisioner for %s first", id, domain)
	}
	if err != nil {
		return "", 0, err
	}

	port, err := artifacts.ProxyPort(string(current))
	if err != nil {
		return "", 0, err
	}

	route := artifacts.NginxTLS(artifacts.RouteParams{
		Domain:   domain,
		Identity: id,
		Port:     port,
		HomeRoot: s.paths.HomeRoot,
	})

	var validate, reload func() error
	if _, lerr := s.runner.LookPath("nginx"); lerr == nil {
		validate = func() error {
			return s.runner.Run(ctx, "nginx", "-t")
		}
		reload = func() error {
			return s.runner.Run(ctx, "systemctl", "reload", "nginx")
		}
	} else {
		logger.Warn("nginx not installed; tls route written but not validated or reloaded",
			zap.String("path", availablePath))
	}

	if err := hostfile.Apply(availablePath, []byte(route), 0644, validate, reload); err != nil {
		return "", 0, err
	}
	return availablePath, port, nil
}
