package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type parsedConfig struct {
	ScrapeConfigs []struct {
		JobName       string `yaml:"job_name"`
		MetricsPath   string `yaml:"metrics_path"`
		StaticConfigs []struct {
			Targets []string          `yaml:"targets"`
			Labels  map[string]string `yaml:"labels"`
		} `yaml:"static_configs"`
	} `yaml:"scrape_configs"`
}

func TestDefaultPrometheusConfigIsValidYAML(t *testing.T) {
	var parsed parsedConfig
	require.NoError(t, yaml.Unmarshal([]byte(DefaultPrometheusConfig), &parsed))
	require.Len(t, parsed.ScrapeConfigs, 1)
	assert.Equal(t, "prometheus", parsed.ScrapeConfigs[0].JobName)
}

func TestAppendScrapeJob(t *testing.T) {
	p := ScrapeParams{Identity: "examplecom", Domain: "example.com", Port: 9000, MetricsPath: "/metrics"}
	updated := AppendScrapeJob(DefaultPrometheusConfig, p)

	var parsed parsedConfig
	require.NoError(t, yaml.Unmarshal([]byte(updated), &parsed))
	require.Len(t, parsed.ScrapeConfigs, 2, "existing jobs must be preserved")

	job := parsed.ScrapeConfigs[1]
	assert.Equal(t, "examplecom", job.JobName)
	assert.Equal(t, "/metrics", job.MetricsPath)
	require.Len(t, job.StaticConfigs, 1)
	assert.Equal(t, []string{"localhost:9000"}, job.StaticConfigs[0].Targets)
	assert.Equal(t, "example.com", job.StaticConfigs[0].Labels["domain"])
	assert.Equal(t, "examplecom", job.StaticConfigs[0].Labels["app"])
}

func TestAppendScrapeJobCustomPath(t *testing.T) {
	p := ScrapeParams{Identity: "apiexamplecom", Domain: "api.example.com", Port: 8080, MetricsPath: "/internal/metrics"}
	updated := AppendScrapeJob(DefaultPrometheusConfig, p)

	var parsed parsedConfig
	require.NoError(t, yaml.Unmarshal([]byte(updated), &parsed))
	assert.Equal(t, "/internal/metrics", parsed.ScrapeConfigs[1].MetricsPath)
}

func TestAppendPreservesMultipleApplications(t *testing.T) {
	config := DefaultPrometheusConfig
	apps := []ScrapeParams{
		{Identity: "appone", Domain: "one.com", Port: 9001, MetricsPath: "/metrics"},
		{Identity: "apptwo", Domain: "two.com", Port: 9002, MetricsPath: "/metrics"},
		{Identity: "appthree", Domain: "three.com", Port: 9003, MetricsPath: "/metrics"},
	}
	for _, app := range apps {
		config = AppendScrapeJob(config, app)
	}

	var parsed parsedConfig
	require.NoError(t, yaml.Unmarshal([]byte(config), &parsed))
	require.Len(t, parsed.ScrapeConfigs, 4)

	names := make([]string, 0, len(parsed.ScrapeConfigs))
	for _, job := range parsed.ScrapeConfigs {
		names = append(names, job.JobName)
	}
	assert.Equal(t, []string{"prometheus", "appone", "apptwo", "appthree"}, names)
}

func TestHasScrapeJob(t *testing.T) {
	config := AppendScrapeJob(DefaultPrometheusConfig, ScrapeParams{
		Identity: "examplecom", Domain: "example.com", Port: 9000, MetricsPath: "/metrics",
	})

	found, err := HasScrapeJob(config, "examplecom")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = HasScrapeJob(config, "othercom")
	require.NoError(t, err)
	assert.False(t, found)

	// quoted job names from hand-edited configs still match
	found, err = HasScrapeJob(config, "prometheus")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestHasScrapeJobRejectsMalformedConfig(t *testing.T) {
	_, err := HasScrapeJob("scrape_configs: [not: valid", "x")
	assert.Error(t, err)
}
