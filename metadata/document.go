package metadata

import (
	"encoding/json"
	"regexp"

	"github.com/samber/lo"

	"dockhand/types"
)

// Document is the host metadata record: droplet facts plus the
// application inventory. It stays schemaless on purpose; the slot is
// written by several workflows and malformed shapes must degrade to
// defaults, not break reads.
type Document map[string]interface{}

const (
	DefaultSSHPort = 22
	DefaultSSHUser = "root"
)

var (
	dottedQuadRe = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	sshUserRe    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func (d Document) droplet() map[string]interface{} {
	droplet, ok := d["droplet"].(map[string]interface{})
	if !ok {
		return nil
	}
	return droplet
}

// SSHPort returns the droplet's SSH port, or 22 when absent or out of
// range.
func (d Document) SSHPort() int {
	value, ok := d.droplet()["ssh_port"]
	if !ok {
		return DefaultSSHPort
	}

	port := 0
	switch v := value.(type) {
	case float64:
		port = int(v)
	case int:
		port = v
	default:
		return DefaultSSHPort
	}

	if port < 1 || port > 65535 {
		return DefaultSSHPort
	}
	return port
}

// SSHUser returns the droplet's SSH user, or "root" when absent or
// malformed.
func (d Document) SSHUser() string {
	user, ok := d.droplet()["ssh_user"].(string)
	if !ok || !sshUserRe.MatchString(user) {
		return DefaultSSHUser
	}
	return user
}

// DropletIP returns the droplet's public address, or "" when absent or
// not a dotted quad.
func (d Document) DropletIP() string {
	ip, ok := d.droplet()["ip"].(string)
	if !ok || !dottedQuadRe.MatchString(ip) {
		return ""
	}
	return ip
}

// Applications decodes the application inventory, dropping entries
// that do not fit the record shape.
func (d Document) Applications() []types.ApplicationRecord {
	raw, ok := d["applications"]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var records []types.ApplicationRecord
	if err := json.Unmarshal(encoded, &records); err != nil {
		return nil
	}
	return records
}

// FindApplication returns the inventory record for an identity.
func (d Document) FindApplication(identity string) (types.ApplicationRecord, bool) {
	return lo.Find(d.Applications(), func(r types.ApplicationRecord) bool {
		return r.Identity == identity
	})
}

// EnsureIdentityAvailable enforces the pre-provisioning uniqueness
// check: derivation is lossy, so a new domain may collide with an
// identity already bound to a different domain on this host.
func (d Document) EnsureIdentityAvailable(identity, domain string) error {
	existing, found := d.FindApplication(identity)
	if found && existing.Domain != domain {
		return types.StateConflictf(
			"identity %q is already provisioned for domain %q; %q derives to the same identity",
			identity, existing.Domain, domain)
	}
	return nil
}

// EnsurePortAvailable enforces port uniqueness across the host: every
// application proxies and is scraped at localhost:<port>, so a port
// held by a different identity would silently serve two domains from
// one backend.
func (d Document) EnsurePortAvailable(port int, identity string) error {
	holder, found := lo.Find(d.Applications(), func(r types.ApplicationRecord) bool {
		return r.Port == port && r.Identity != identity
	})
	if found {
		return types.StateConflictf(
			"port %d is already bound to identity %q (domain %q); pick a free port",
			port, holder.Identity, holder.Domain)
	}
	return nil
}

// UpsertApplication replaces the record for the same identity or
// appends a new one, returning the updated document.
func (d Document) UpsertApplication(record types.ApplicationRecord) Document {
	records := d.Applications()
	_, index, found := lo.FindIndexOf(records, func(r types.ApplicationRecord) bool {
		return r.Identity == record.Identity
	})
	if found {
		records[index] = record
	} else {
		records = append(records, record)
	}

	out := Document{}
	for k, v := range d {
		out[k] = v
	}
	out["applications"] = records
	return out
}
