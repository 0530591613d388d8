package whitebox

import (
	"context"
	"sync"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
)

// Clients builds the whitebox clients for one session and topology.
// The database client is discovered on first use and reused afterwards.
type Clients struct {
	session    *remote.Session
	topo       Topology
	dbOpts     []DatabaseOption
	manageOpts []ManagementOption

	mu sync.Mutex
	db *DatabaseClient
}

// ClientsOption is a functional option for configuring Clients.
type ClientsOption func(*Clients)

// WithDatabaseOptions sets the options every database client is built with.
func WithDatabaseOptions(opts ...DatabaseOption) ClientsOption {
	return func(c *Clients) {
		c.dbOpts = append(c.dbOpts, opts...)
	}
}

// WithManagementOptions sets the options the management client is built with.
func WithManagementOptions(opts ...ManagementOption) ClientsOption {
	return func(c *Clients) {
		c.manageOpts = append(c.manageOpts, opts...)
	}
}

// NewClients creates a client factory.
func NewClients(s *remote.Session, topo Topology, opts ...ClientsOption) *Clients {
	c := &Clients{
		session: s,
		topo:    topo,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Session returns the base session.
func (c *Clients) Session() *remote.Session {
	return c.session
}

// Topology returns the deployment topology.
func (c *Clients) Topology() Topology {
	return c.topo
}

// Hypervisor returns an inspector for host.
func (c *Clients) Hypervisor(host string) *HypervisorInspector {
	return NewHypervisorInspector(c.session, c.topo, host)
}

// Database returns the database client, running discovery on the first
// successful call. A failed discovery is not cached.
func (c *Clients) Database(ctx context.Context) (*DatabaseClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	db, err := NewDatabaseClient(ctx, c.session, c.topo, c.dbOpts...)
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

// Management returns a management CLI client.
func (c *Clients) Management() *ManagementClient {
	return NewManagementClient(c.session, c.topo, c.manageOpts...)
}
