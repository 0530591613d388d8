// Package containers inspects the service containers on a deployment host
// through the Docker Engine API.
package containers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-units"
)

// ErrNotFound is returned when a named container does not exist.
var ErrNotFound = errors.New("container not found")

// API is the part of the Docker client the inspector uses.
type API interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Status describes one container.
type Status struct {
	Name    string
	ID      string
	Image   string
	State   string
	Health  string
	Running bool

	// StartedAt is zero when the container never started or was listed
	// rather than inspected.
	StartedAt time.Time
	CreatedAt time.Time
}

// Uptime returns how long the container has been running, in words, or ""
// when it is not running.
func (s Status) Uptime(now time.Time) string {
	if !s.Running || s.StartedAt.IsZero() {
		return ""
	}
	return units.HumanDuration(now.Sub(s.StartedAt))
}

// Age returns how long ago the container was created, in words, or ""
// when the creation time is unknown.
func (s Status) Age(now time.Time) string {
	if s.CreatedAt.IsZero() {
		return ""
	}
	return units.HumanDuration(now.Sub(s.CreatedAt)) + " ago"
}

// Inspector reports container state on one host.
type Inspector struct {
	api    API
	host   string
	logger *slog.Logger
}

// Option is a functional option for configuring the Inspector.
type Option func(*Inspector)

// WithLogger sets a custom logger for the inspector.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInspector creates an inspector over api. host only labels logs and
// errors.
func NewInspector(api API, host string, opts ...Option) *Inspector {
	i := &Inspector{
		api:    api,
		host:   host,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Inspect returns the status of the named container, or ErrNotFound.
func (i *Inspector) Inspect(ctx context.Context, name string) (Status, error) {
	resp, err := i.api.ContainerInspect(ctx, name)
	if err != nil {
		if dockerclient.IsErrNotFound(err) {
			return Status{}, fmt.Errorf("%w: %s on %s", ErrNotFound, name, i.host)
		}
		return Status{}, fmt.Errorf("inspecting container %s on %s: %w", name, i.host, err)
	}

	return statusFromInspect(resp), nil
}

// Running reports whether the named container exists and is running.
// A missing container is not an error.
func (i *Inspector) Running(ctx context.Context, name string) (bool, error) {
	status, err := i.Inspect(ctx, name)
	if errors.Is(err, ErrNotFound) {
		i.logger.Debug("container not found",
			slog.String("host", i.host),
			slog.String("container", name),
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status.Running, nil
}

// List returns all containers on the host, running or not, sorted by name.
func (i *Inspector) List(ctx context.Context) ([]Status, error) {
	summaries, err := i.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("listing containers on %s: %w", i.host, err)
	}

	statuses := make([]Status, 0, len(summaries))
	for _, s := range summaries {
		name := ""
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		status := Status{
			Name:    name,
			ID:      s.ID,
			Image:   s.Image,
			State:   string(s.State),
			Running: string(s.State) == "running",
		}
		if s.Created > 0 {
			status.CreatedAt = time.Unix(s.Created, 0)
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(a, b int) bool { return statuses[a].Name < statuses[b].Name })
	return statuses, nil
}

// DetectContainers reports whether the deployment runs its services in
// containers, judged by whether the named API container is running.
func DetectContainers(ctx context.Context, i *Inspector, apiContainer string) (bool, error) {
	running, err := i.Running(ctx, apiContainer)
	if err != nil {
		return false, fmt.Errorf("detecting container deployment: %w", err)
	}

	i.logger.Info("detected deployment topology",
		slog.String("host", i.host),
		slog.String("container", apiContainer),
		slog.Bool("containers", running),
	)

	return running, nil
}

func statusFromInspect(resp container.InspectResponse) Status {
	var s Status
	if resp.ContainerJSONBase != nil {
		s.Name = strings.TrimPrefix(resp.Name, "/")
		s.ID = resp.ID
		s.Image = resp.Image
		if st := resp.State; st != nil {
			s.State = string(st.Status)
			s.Running = st.Running
			if st.Health != nil {
				s.Health = string(st.Health.Status)
			}
			if started, err := time.Parse(time.RFC3339Nano, st.StartedAt); err == nil && started.Year() > 1 {
				s.StartedAt = started
			}
		}
	}
	if resp.Config != nil && resp.Config.Image != "" {
		s.Image = resp.Config.Image
	}
	return s
}
