// Package artifacts renders the per-application host artifacts: nginx
// routes, the systemd unit, the Prometheus scrape entry and the scoped
// sudoers allowance. Builders are pure; callers decide where the text
// lands.
package artifacts

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"dockhand/identity"
	"dockhand/types"
)

type RouteParams struct {
	Domain   string
	Identity string
	Port     int
	HomeRoot string
}

func (p RouteParams) staticDir() string {
	return filepath.Join(p.HomeRoot, p.Identity, "static")
}

// NginxHTTP renders the plaintext route for a domain. Apex domains get
// an extra server block redirecting www to the bare domain; subdomains
// get a single block.
func NginxHTTP(p RouteParams) string {
	out := ""
	if identity.IsRootDomain(p.Domain) {
		out += fmt.Sprintf(`server {
    listen 80;
    server_name www.%s;
    return 301 $scheme://%s$request_uri;
}

`, p.Domain, p.Domain)
	}

	out += fmt.Sprintf(`server {
    listen 80;
    server_name %s;

%s
}
`, p.Domain, proxyLocations(p.Port, p.staticDir()))
	return out
}

// NginxTLS renders the HTTPS route written by the certificate
// provisioner: port-80 redirect for every host alias, HSTS, TLS 1.2/1.3
// only, and the same proxy semantics as the plaintext route.
func NginxTLS(p RouteParams) string {
	hosts := p.Domain
	if identity.IsRootDomain(p.Domain) {
		hosts += " www." + p.Domain
	}
	cert := CertificatePath(p.Domain)

	out := fmt.Sprintf(`server {
    listen 80;
    server_name %s;
    return 301 https://%s$request_uri;
}

`, hosts, p.Domain)

	if identity.IsRootDomain(p.Domain) {
		out += fmt.Sprintf(`server {
    listen 443 ssl http2;
    server_name www.%s;

    ssl_certificate %s/fullchain.pem;
    ssl_certificate_key %s/privkey.pem;
    ssl_protocols TLSv1.2 TLSv1.3;

    return 301 https://%s$request_uri;
}

`, p.Domain, cert, cert, p.Domain)
	}

	out += fmt.Sprintf(`server {
    listen 443 ssl http2;
    server_name %s;

    ssl_certificate %s/fullchain.pem;
    ssl_certificate_key %s/privkey.pem;
    ssl_protocols TLSv1.2 TLSv1.3;
    ssl_prefer_server_ciphers on;
    add_header Strict-Transport-Security "max-age=31536000; includeSubDomains" always;

%s
}
`, p.Domain, cert, cert, proxyLocations(p.Port, p.staticDir()))
	return out
}

func proxyLocations(port int, staticDir string) string {
	return fmt.Sprintf(`    location / {
        proxy_pass http://localhost:%d;
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection 'upgrade';
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
        proxy_cache_bypass $http_upgrade;
    }

    location /static/ {
        alias %s/;
        expires 30d;
        add_header Cache-Control "public, immutable";
    }`, port, staticDir)
}

var proxyPassRe = regexp.MustCompile(`proxy_pass http://localhost:(\d+);`)

// ProxyPort recovers the upstream port from an existing route file.
// The TLS upgrade reads it back instead of taking a port argument, so
// the rewritten route keeps proxying whatever the plaintext route did.
func ProxyPort(route string) (int, error) {
	m := proxyPassRe.FindStringSubmatch(route)
	if m == nil {
		return 0, types.StateConflictf("route carries no proxy_pass to localhost; cannot recover the application port")
	}
	port, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, types.StateConflictf("route proxy_pass port %q is not a number", m[1])
	}
	return port, nil
}

// CertificatePath returns the Let's Encrypt live directory for a
// domain.
func CertificatePath(domain string) string {
	return "/etc/letsencrypt/live/" + domain
}
