package whitebox

import (
	"context"
	"strings"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
)

// HypervisorInspector reads libvirt state on one compute host.
type HypervisorInspector struct {
	session *remote.Session
	topo    Topology
	host    string
}

// NewHypervisorInspector creates an inspector for host. An empty host means
// the session's controller.
func NewHypervisorInspector(s *remote.Session, topo Topology, host string) *HypervisorInspector {
	return &HypervisorInspector{
		session: s.Named("virsh"),
		topo:    topo,
		host:    host,
	}
}

// Host returns the compute host the inspector targets.
func (h *HypervisorInspector) Host() string {
	return h.host
}

// DumpXML returns the libvirt XML document of domain, unparsed.
func (h *HypervisorInspector) DumpXML(ctx context.Context, domain string) (string, error) {
	return h.run(ctx, "virsh dumpxml "+remote.Quote(domain))
}

// Domains returns the names of all domains on the host, running or not.
func (h *HypervisorInspector) Domains(ctx context.Context) ([]string, error) {
	out, err := h.run(ctx, "virsh list --all --name")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (h *HypervisorInspector) run(ctx context.Context, cmd string) (string, error) {
	return h.topo.ComputeContext(h.session).Execute(ctx, h.host, cmd)
}
