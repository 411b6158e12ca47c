package artifacts

import "fmt"

type UnitParams struct {
	Domain   string
	Identity string
	Home     string
	Port     int
}

// SystemdUnit renders the supervision unit for one application. The
// unit is enabled for boot but never started by the provisioner;
// deployments start it once a release is in place.
func SystemdUnit(p UnitParams) string {
	appDir := p.Home + "/app"

	return fmt.Sprintf(`[Unit]
Description=Application for %s
After=network.target

[Service]
Type=simple
User=%s
WorkingDirectory=%s
Environment=PORT=%d
ExecStart=%s/start.sh
Restart=always
RestartSec=10
StandardOutput=journal
StandardError=journal
LimitNOFILE=65536
LimitNPROC=4096

# Security settings
NoNewPrivileges=true
PrivateTmp=true

[Install]
WantedBy=multi-user.target
`, p.Domain, p.Identity, appDir, p.Port, appDir)
}
