package artifacts

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type ScrapeParams struct {
	Identity    string
	Domain      string
	Port        int
	MetricsPath string
}

// DefaultPrometheusConfig seeds the scrape file when the host has
// never run a metrics collector before.
const DefaultPrometheusConfig = `global:
  scrape_interval: 15s
  evaluation_interval: 15s

scrape_configs:
  - job_name: 'prometheus'
    static_configs:
      - targets: ['localhost:9090']
`

// ScrapeJob renders one scrape_configs list entry. Entries are only
// ever appended; job_name is the dedup key.
func ScrapeJob(p ScrapeParams) string {
	return fmt.Sprintf(`  - job_name: %s
    metrics_path: %s
    static_configs:
      - targets: ['localhost:%d']
        labels:
          domain: %s
          app: %s
`, p.Identity, p.MetricsPath, p.Port, p.Domain, p.Identity)
}

// AppendScrapeJob appends a rendered entry to an existing config,
// preserving everything already there. The scrape file keeps
// scrape_configs as its final section, so a plain append lands the
// entry inside the list.
func AppendScrapeJob(config string, p ScrapeParams) string {
	if config != "" && !strings.HasSuffix(config, "\n") {
		config += "\n"
	}
	return config + ScrapeJob(p)
}

type scrapeConfigFile struct {
	ScrapeConfigs []struct {
		JobName string `yaml:"job_name"`
	} `yaml:"scrape_configs"`
}

// HasScrapeJob reports whether a job with this name already exists.
// The check parses the document rather than grepping, so quoting and
// indentation differences do not produce duplicates.
func HasScrapeJob(config string, jobName string) (bool, error) {
	var parsed scrapeConfigFile
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return false, err
	}
	for _, job := range parsed.ScrapeConfigs {
		if job.JobName == jobName {
			return true, nil
		}
	}
	return false, nil
}
