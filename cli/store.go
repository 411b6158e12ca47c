package cli

import (
	"go.uber.org/zap"

	"dockhand/config"
	"dockhand/logger"
	"dockhand/metadata"
)

// maybeStore builds the metadata client when credentials are present.
// The inventory is advisory for provisioning, so a host without
// credentials still provisions; only the metadata subcommands hard
// require them.
func maybeStore(cfg config.Config) metadata.Client {
	if !cfg.Metadata.Configured() {
		logger.Debug("metadata credentials not set; inventory checks disabled")
		return nil
	}

	store, err := metadata.NewClient(cfg.Metadata)
	if err != nil {
		logger.Warn("metadata client unavailable", zap.Error(err))
		return nil
	}
	return store
}
