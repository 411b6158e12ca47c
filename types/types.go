package types

import "github.com/google/uuid"

type (
	// ApplicationRecord is one entry in the host metadata document's
	// application inventory.
	ApplicationRecord struct {
		Domain      string `json:"domain"`
		Identity    string `json:"identity"`
		Port        int    `json:"port"`
		MetricsPath string `json:"metrics_path"`
		ServiceName string `json:"service_name"`
	}

	ProvisionParams struct {
		Domain       string `validate:"required,fqdn"`
		Port         int    `validate:"required,gte=1024,lte=65535"`
		MetricsPath  string `validate:"required,startswith=/"`
		SSHPublicKey string `validate:"required"`
	}

	TLSParams struct {
		Domain string `validate:"required,fqdn"`
		HostIP string `validate:"required,ip4_addr"`
		// Identity overrides the value derived from Domain. Leave
		// empty unless the route was provisioned under another name.
		Identity string `validate:"omitempty,lowercase,alphanum,max=32"`
	}

	ProvisionSummary struct {
		RunID       uuid.UUID
		Domain      string
		Identity    string
		Port        int
		MetricsPath string
		ServiceName string
		HomeDir     string
		RoutePath   string
		UnitPath    string
		ScrapePath  string
	}

	TLSSummary struct {
		RunID           uuid.UUID
		Domain          string
		Identity        string
		Port            int
		RoutePath       string
		CertificatePath string
		Hosts           []string
	}
)
