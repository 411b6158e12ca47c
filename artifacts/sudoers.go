package artifacts

import (
	"fmt"
	"strings"

	"dockhand/identity"
)

var allowedVerbs = []string{"start", "stop", "restart", "reload", "status", "is-active"}

// Sudoers renders the narrowly scoped privilege allowance for one
// account: service control verbs and log access for exactly its own
// unit, nothing else.
func Sudoers(id string) string {
	unit := identity.UnitFileName(id)

	rules := make([]string, 0, len(allowedVerbs)+1)
	for _, verb := range allowedVerbs {
		rules = append(rules, fmt.Sprintf("/usr/bin/systemctl %s %s", verb, unit))
	}
	rules = append(rules, fmt.Sprintf("/usr/bin/journalctl -u %s *", unit))

	return fmt.Sprintf("%s ALL=(ALL) NOPASSWD: %s\n", id, strings.Join(rules, ", "))
}
