package provision

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"dockhand/artifacts"
	"dockhand/hostfile"
	"dockhand/identity"
	"dockhand/logger"
	"dockhand/types"
)

// Provision runs the full application setup for one domain: account,
// SSH key, release layout, nginx route, systemd unit and Prometheus
// scrape entry. Steps run in order and the first failure aborts the
// rest; every step is safe to re-run.
func (s *service) Provision(ctx context.Context, params types.ProvisionParams) (*types.ProvisionSummary, error) {
	if err := s.structErr(s.validate.Struct(params)); err != nil {
		return nil, err
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(params.SSHPublicKey)); err != nil {
		return nil, types.Validationf("ssh public key does not parse as an authorized_keys entry: %v", err)
	}

	id := identity.Derive(params.Domain)
	if id == "" {
		return nil, types.Validationf("domain %q yields an empty identity", params.Domain)
	}

	runID := uuid.New()
	log := logger.GetLogger().With(
		zap.String("run_id", runID.String()),
		zap.String("domain", params.Domain),
		zap.String("identity", id))

	if err := s.checkInventory(ctx, id, params.Domain, params.Port, log); err != nil {
		return nil, err
	}

	home := filepath.Join(s.paths.HomeRoot, id)

	log.Info("ensuring account")
	if err := s.ensureAccount(ctx, id, home); err != nil {
		return nil, err
	}

	log.Info("installing ssh key")
	if err := s.installKey(ctx, id, home, params.SSHPublicKey); err != nil {
		return nil, err
	}

	log.Info("ensuring release layout")
	if err := s.ensureLayout(ctx, id, home); err != nil {
		return nil, err
	}

	log.Info("writing nginx route")
	routePath, err := s.writeRoute(ctx, id, params, home)
	if err != nil {
		return nil, err
	}

	log.Info("writing service unit")
	unitPath, err := s.writeUnit(ctx, id, params, home)
	if err != nil {
		return nil, err
	}

	log.Info("registering scrape target")
	if err := s.registerScrape(ctx, id, params); err != nil {
		return nil, err
	}

	record := types.ApplicationRecord{
		Domain:      params.Domain,
		Identity:    id,
		Port:        params.Port,
		MetricsPath: params.MetricsPath,
		ServiceName: identity.ServiceName(id),
	}
	s.recordInventory(ctx, record, log)

	log.Info("application provisioned")
	return &types.ProvisionSummary{
		RunID:       runID,
		Domain:      params.Domain,
		Identity:    id,
		Port:        params.Port,
		MetricsPath: params.MetricsPath,
		ServiceName: identity.ServiceName(id),
		HomeDir:     home,
		RoutePath:   routePath,
		UnitPath:    unitPath,
		ScrapePath:  s.paths.PrometheusConfig,
	}, nil
}

// checkInventory enforces identity and port uniqueness against the
// metadata inventory. Derivation is lossy, so a colliding domain must
// not silently take over another application's artifacts; ports are
// host-wide, so one held by another identity must not be reused.
func (s *service) checkInventory(ctx context.Context, id, domain string, port int, log *zap.Logger) error {
	if s.store == nil {
		return nil
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		// the inventory is advisory; an unreachable slot must not
		// block provisioning
		log.Warn("metadata inventory unreachable, skipping uniqueness checks", zap.Error(err))
		return nil
	}
	if err := doc.EnsureIdentityAvailable(id, domain); err != nil {
		return err
	}
	return doc.EnsurePortAvailable(port, id)
}

func (s *service) recordInventory(ctx context.Context, record types.ApplicationRecord, log *zap.Logger) {
	if s.store == nil {
		return
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		log.Warn("metadata inventory unreachable, record not persisted", zap.Error(err))
		return
	}
	if err := s.store.WriteDocument(ctx, doc.UpsertApplication(record)); err != nil {
		log.Warn("metadata inventory write failed", zap.Error(err))
	}
}

func (s *service) ensureAccount(ctx context.Context, id, home string) error {
	if err := s.runner.Run(ctx, "id", id); err == nil {
		logger.Info("account already exists, skipping", zap.String("identity", id))
	} else {
		if err := s.runner.Run(ctx, "useradd", "--create-home", "--home-dir", home, "--shell", "/bin/bash", id); err != nil {
			return types.NewError(types.ErrStateConflict, err, "creating account %s", id)
		}
	}

	if err := os.MkdirAll(s.paths.SudoersDir, 0755); err != nil {
		return err
	}

	sudoersPath := filepath.Join(s.paths.SudoersDir, identity.ServiceName(id))
	var validate func() error
	if _, err := s.runner.LookPath("visudo"); err == nil {
		validate = func() error {
			return s.runner.Run(ctx, "visudo", "-cf", sudoersPath)
		}
	}
	return hostfile.Apply(sudoersPath, []byte(artifacts.Sudoers(id)), 0440, validate, nil)
}

func (s *service) installKey(ctx context.Context, id, home, publicKey string) error {
	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0700); err != nil {
		return err
	}

	keyFile := filepath.Join(sshDir, "authorized_keys")
	added, err := hostfile.EnsureLine(keyFile, publicKey, 0600)
	if err != nil {
		return err
	}
	if !added {
		logger.Info("ssh key already installed", zap.String("identity", id))
	}

	// permissions are re-asserted every run, not only on creation
	if err := os.Chmod(sshDir, 0700); err != nil {
		return err
	}
	if err := os.Chmod(keyFile, 0600); err != nil {
		return err
	}
	return s.runner.Run(ctx, "chown", "-R", id+":"+id, sshDir)
}

func (s *service) ensureLayout(ctx context.Context, id, home string) error {
	releases := filepath.Join(home, "releases")
	initial := filepath.Join(releases, "initial")
	if err := os.MkdirAll(initial, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(home, "static"), 0755); err != nil {
		return err
	}

	// the app link is only seeded; deployments repoint it at real
	// releases and a re-run must not undo that
	appLink := filepath.Join(home, "app")
	if _, err := os.Lstat(appLink); os.IsNotExist(err) {
		if err := os.Symlink(initial, appLink); err != nil {
			return err
		}
	}

	return s.runner.Run(ctx, "chown", "-R", id+":"+id, home)
}

func (s *service) writeRoute(ctx context.Context, id string, params types.ProvisionParams, home string) (string, error) {
	if err := os.MkdirAll(s.paths.NginxAvailable, 0755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.paths.NginxEnabled, 0755); err != nil {
		return "", err
	}

	availablePath := filepath.Join(s.paths.NginxAvailable, id)
	enabledPath := filepath.Join(s.paths.NginxEnabled, id)
	route := artifacts.NginxHTTP(artifacts.RouteParams{
		Domain:   params.Domain,
		Identity: id,
		Port:     params.Port,
		HomeRoot: s.paths.HomeRoot,
	})

	tx, err := hostfile.Begin(availablePath)
	if err != nil {
		return "", err
	}
	if err := tx.Write([]byte(route), 0644); err != nil {
		return "", err
	}

	// Restoring a fresh route removes the available file, so a link
	// created in the same run must go with it or it dangles.
	_, lerr := os.Lstat(enabledPath)
	freshLink := os.IsNotExist(lerr)
	restore := func() {
		if rerr := tx.Restore(); rerr != nil {
			logger.Error("route restore failed", zap.Error(rerr))
		}
		if freshLink {
			if rerr := os.Remove(enabledPath); rerr != nil && !os.IsNotExist(rerr) {
				logger.Error("route link cleanup failed", zap.Error(rerr))
			}
		}
	}

	if err := hostfile.EnsureSymlink(availablePath, enabledPath); err != nil {
		return "", err
	}

	if _, err := s.runner.LookPath("nginx"); err != nil {
		logger.Warn("nginx not installed; route written but not validated or reloaded",
			zap.String("path", availablePath))
		return availablePath, nil
	}

	if err := s.runner.Run(ctx, "nginx", "-t"); err != nil {
		restore()
		return "", types.ToolValidationf(err, "generated route for %s failed nginx validation", params.Domain)
	}
	if err := s.runner.Run(ctx, "systemctl", "reload", "nginx"); err != nil {
		restore()
		return "", types.Reloadf(err, "nginx reload failed after writing route for %s", params.Domain)
	}
	return availablePath, nil
}

func (s *service) writeUnit(ctx context.Context, id string, params types.ProvisionParams, home string) (string, error) {
	if err := os.MkdirAll(s.paths.SystemdDir, 0755); err != nil {
		return "", err
	}

	unitPath := filepath.Join(s.paths.SystemdDir, identity.UnitFileName(id))
	unit := artifacts.SystemdUnit(artifacts.UnitParams{
		Domain:   params.Domain,
		Identity: id,
		Home:     home,
		Port:     params.Port,
	})

	if _, err := s.runner.LookPath("systemctl"); err != nil {
		logger.Warn("systemctl not installed; unit written but not enabled", zap.String("path", unitPath))
		return unitPath, hostfile.Apply(unitPath, []byte(unit), 0644, nil, nil)
	}

	reload := func() error {
		return s.runner.Run(ctx, "systemctl", "daemon-reload")
	}
	if err := hostfile.Apply(unitPath, []byte(unit), 0644, nil, reload); err != nil {
		return "", err
	}

	// enabled for boot, deliberately not started: deployments start
	// the unit once a release is in place
	if err := s.runner.Run(ctx, "systemctl", "enable", identity.ServiceName(id)); err != nil {
		return "", types.Reloadf(err, "enabling unit %s", identity.ServiceName(id))
	}
	return unitPath, nil
}

func (s *service) registerScrape(ctx context.Context, id string, params types.ProvisionParams) error {
	promPath := s.paths.PrometheusConfig
	if err := os.MkdirAll(filepath.Dir(promPath), 0755); err != nil {
		return err
	}

	current, err := os.ReadFile(promPath)
	if os.IsNotExist(err) {
		logger.Info("prometheus config absent, seeding default", zap.String("path", promPath))
		current = []byte(artifacts.DefaultPrometheusConfig)
		if werr := os.WriteFile(promPath, current, 0644); werr != nil {
			return werr
		}
	} else if err != nil {
		return err
	}

	exists, err := artifacts.HasScrapeJob(string(current), id)
	if err != nil {
		return types.StateConflictf("prometheus config at %s is not parseable: %v", promPath, err)
	}
	if exists {
		logger.Info("scrape target already registered, skipping", zap.String("job", id))
		return nil
	}

	updated := artifacts.AppendScrapeJob(string(current), artifacts.ScrapeParams{
		Identity:    id,
		Domain:      params.Domain,
		Port:        params.Port,
		MetricsPath: params.MetricsPath,
	})

	var validate func() error
	if _, lerr := s.runner.LookPath("promtool"); lerr == nil {
		validate = func() error {
			return s.runner.Run(ctx, "promtool", "check", "config", promPath)
		}
	}

	var reload func() error
	if _, lerr := s.runner.LookPath("systemctl"); lerr == nil {
		reload = func() error {
			if err := s.runner.Run(ctx, "systemctl", "is-active", "prometheus"); err == nil {
				return s.runner.Run(ctx, "systemctl", "reload", "prometheus")
			}
			return s.runner.Run(ctx, "systemctl", "start", "prometheus")
		}
	}

	return hostfile.Apply(promPath, []byte(updated), 0644, validate, reload)
}
