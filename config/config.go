package config

import "os"

type (
	Config struct {
		LogLevel string
		Metadata Metadata
		Paths    Paths
	}

	// Metadata holds the credentials and coordinates of the remote
	// key-value slot. Token and Repository are both required before
	// any network call is attempted; the client enforces that at
	// construction time.
	Metadata struct {
		Token      string
		Repository string // "owner/name"
		BaseURL    string
		Variable   string
	}

	// Paths collects every host location the provisioners touch, so
	// tests can point the whole run at a temp directory.
	Paths struct {
		NginxAvailable   string
		NginxEnabled     string
		SystemdDir       string
		SudoersDir       string
		PrometheusConfig string
		HomeRoot         string
	}
)

const (
	defaultBaseURL  = "https://api.github.com"
	defaultVariable = "DROPLET_METADATA"
)

func New() Config {
	return Config{
		LogLevel: getenv("DOCKHAND_LOG_LEVEL", "info"),
		Metadata: Metadata{
			Token:      os.Getenv("METADATA_TOKEN"),
			Repository: os.Getenv("METADATA_REPOSITORY"),
			BaseURL:    getenv("METADATA_BASE_URL", defaultBaseURL),
			Variable:   getenv("METADATA_VARIABLE", defaultVariable),
		},
		Paths: DefaultPaths(),
	}
}

func DefaultPaths() Paths {
	return Paths{
		NginxAvailable:   "/etc/nginx/sites-available",
		NginxEnabled:     "/etc/nginx/sites-enabled",
		SystemdDir:       "/etc/systemd/system",
		SudoersDir:       "/etc/sudoers.d",
		PrometheusConfig: "/etc/prometheus/prometheus.yml",
		HomeRoot:         "/home",
	}
}

func (m Metadata) Configured() bool {
	return m.Token != "" && m.Repository != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
