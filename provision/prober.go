package provision

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Prober checks the HTTPS endpoint after a TLS upgrade. Probe failures
// are advisory; the route and certificate are already installed.
type Prober interface {
	Probe(ctx context.Context, domain string) error
}

type tlsProber struct {
	timeout time.Duration
}

func NewProber() Prober {
	return &tlsProber{timeout: 10 * time.Second}
}

func (p *tlsProber) Probe(ctx context.Context, domain string) error {
	dialer := &net.Dialer{Timeout: p.timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(domain, "443"), &tls.Config{ServerName: domain})
	if err != nil {
		return errors.Wrapf(err, "dialing https://%s", domain)
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return errors.Errorf("no certificate presented by %s", domain)
	}

	now := time.Now()
	leaf := certs[0]
	if now.Before(leaf.NotBefore) {
		return errors.Errorf("certificate for %s is not valid until %s", domain, leaf.NotBefore)
	}
	if now.After(leaf.NotAfter) {
		return errors.Errorf("certificate for %s expired at %s", domain, leaf.NotAfter)
	}
	return nil
}
