package provision

import (
	"net"

	"github.com/miekg/dns"
)

// Resolver answers address-record lookups for the DNS validation step.
type Resolver interface {
	LookupA(domain string) ([]string, error)
}

type dnsResolver struct {
	server string
}

// NewResolver builds a resolver against the host's configured
// nameserver, falling back to a public one when resolv.conf is
// unreadable.
func NewResolver() Resolver {
	server := "8.8.8.8:53"
	if cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cfg.Servers) > 0 {
		server = net.JoinHostPort(cfg.Servers[0], cfg.Port)
	}
	return &dnsResolver{server: server}
}

func (r *dnsResolver) LookupA(domain string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeA)

	c := new(dns.Client)
	in, _, err := c.Exchange(m, r.server)
	if err != nil {
		return nil, err
	}

	ips := make([]string, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if a, ok := answer.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}
