// Package identity derives the stable per-application name used as the
// join key across every artifact on a host: the OS account, the nginx
// route, the systemd unit, the Prometheus job and the metadata record.
package identity

import "strings"

const (
	// MaxLength matches useradd's practical username limit.
	MaxLength = 32

	servicePrefix = "app-"
)

// Derive maps a domain name onto an OS-legal identifier: lowercase,
// ASCII alphanumerics only, at most MaxLength characters. The mapping
// is deterministic and lossy; two domains can collide ("a-b.com" and
// "ab.com" both derive to "abcom") and no disambiguation is applied.
// Callers must reject an empty result.
func Derive(domain string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(domain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == MaxLength {
			break
		}
	}
	return b.String()
}

// ServiceName returns the supervision unit name for an identity,
// without the ".service" suffix.
func ServiceName(id string) string {
	return servicePrefix + id
}

// UnitFileName returns the unit file basename for an identity.
func UnitFileName(id string) string {
	return ServiceName(id) + ".service"
}

// IsRootDomain reports whether domain is an apex domain (exactly one
// dot). Root domains get a www alias on their route and certificate.
func IsRootDomain(domain string) bool {
	return strings.Count(domain, ".") == 1
}
