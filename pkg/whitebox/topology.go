package whitebox

import "gitlab.bluewillows.net/root/whitebox/pkg/remote"

// Default container names of a containerized deployment.
const (
	DefaultComputeContainer = "nova_compute"
	DefaultAPIContainer     = "nova_api"
)

// Topology describes where the compute and API services run.
type Topology struct {
	// Containers is true when services run in containers on their hosts.
	Containers bool

	ComputeContainer string
	APIContainer     string
}

// DefaultTopology returns a topology with the default container names.
func DefaultTopology(containers bool) Topology {
	return Topology{
		Containers:       containers,
		ComputeContainer: DefaultComputeContainer,
		APIContainer:     DefaultAPIContainer,
	}
}

// ComputeContext returns s scoped to the compute service: as root inside
// the compute container, or through sudo on the host.
func (t Topology) ComputeContext(s *remote.Session) *remote.Session {
	if t.Containers {
		return s.Container(orDefault(t.ComputeContainer, DefaultComputeContainer), "root")
	}
	return s.Sudo("")
}

// APIContext returns s scoped to the API service: inside the API container
// as its default user, or through sudo on the host.
func (t Topology) APIContext(s *remote.Session) *remote.Session {
	if t.Containers {
		return s.Container(orDefault(t.APIContainer, DefaultAPIContainer), "")
	}
	return s.Sudo("")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
