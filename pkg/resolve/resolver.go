// Package resolve looks up target host addresses against a specific
// nameserver, such as the overcloud's own DNS, instead of the system resolver.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DefaultTimeout is the per-query timeout when none is configured.
const DefaultTimeout = 5 * time.Second

// Sentinel errors for lookups.
var (
	// ErrNotFound is returned when the nameserver has no address for a host.
	ErrNotFound = errors.New("no address found")

	// ErrLookupFailed is returned when the nameserver cannot be queried or
	// answers with an error.
	ErrLookupFailed = errors.New("dns lookup failed")
)

// Resolver queries one nameserver for A then AAAA records.
type Resolver struct {
	nameserver string
	client     *dns.Client
	logger     *slog.Logger
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-query timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.client.Timeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a resolver for nameserver, given as host or host:port.
// Port 53 is used when none is given.
func New(nameserver string, opts ...Option) (*Resolver, error) {
	if nameserver == "" {
		return nil, errors.New("nameserver is required")
	}
	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}

	r := &Resolver{
		nameserver: nameserver,
		client:     &dns.Client{Net: "udp", Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Nameserver returns the host:port queried.
func (r *Resolver) Nameserver() string {
	return r.nameserver
}

// Resolve returns the first address the nameserver has for host.
// IP literals are returned unchanged without a query.
func (r *Resolver) Resolve(ctx context.Context, host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addr, err := r.lookup(ctx, host, qtype)
		if err != nil {
			return "", err
		}
		if addr != "" {
			r.logger.Debug("resolved host",
				slog.String("host", host),
				slog.String("address", addr),
				slog.String("nameserver", r.nameserver),
			)
			return addr, nil
		}
	}

	return "", fmt.Errorf("%w for %s at %s", ErrNotFound, host, r.nameserver)
}

func (r *Resolver) lookup(ctx context.Context, host string, qtype uint16) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.nameserver)
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %w", ErrLookupFailed, host, dns.TypeToString[qtype], err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return "", fmt.Errorf("%w for %s at %s", ErrNotFound, host, r.nameserver)
	default:
		return "", fmt.Errorf("%w: %s %s: server returned %s",
			ErrLookupFailed, host, dns.TypeToString[qtype], dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		switch v := rr.(type) {
		case *dns.A:
			return v.A.String(), nil
		case *dns.AAAA:
			return v.AAAA.String(), nil
		}
	}

	return "", nil
}

// Nop returns every host unchanged, leaving resolution to the dialer.
type Nop struct{}

// Resolve implements sshutil.Resolver.
func (Nop) Resolve(_ context.Context, host string) (string, error) {
	return host, nil
}
