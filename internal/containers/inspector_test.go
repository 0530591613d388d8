package containers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/google/go-cmp/cmp"
)

// fakeAPI serves container state from a map keyed by name.
type fakeAPI struct {
	containers map[string]container.InspectResponse
	list       []container.Summary
	err        error
}

func (f *fakeAPI) ContainerInspect(_ context.Context, name string) (container.InspectResponse, error) {
	if f.err != nil {
		return container.InspectResponse{}, f.err
	}
	resp, ok := f.containers[name]
	if !ok {
		return container.InspectResponse{}, fmt.Errorf("No such container: %s: %w", name, cerrdefs.ErrNotFound)
	}
	return resp, nil
}

func (f *fakeAPI) ContainerList(_ context.Context, _ container.ListOptions) ([]container.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func inspectResponse(name string, running bool, startedAt string) container.InspectResponse {
	state := &container.State{Running: running, StartedAt: startedAt}
	if running {
		state.Status = "running"
	} else {
		state.Status = "exited"
	}
	return container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			ID:    "id-" + name,
			Name:  "/" + name,
			Image: "sha256:abc",
			State: state,
		},
		Config: &container.Config{Image: "registry.local/" + name + ":17.1"},
	}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		containers: map[string]container.InspectResponse{
			"nova_api":     inspectResponse("nova_api", true, "2026-10-18T09:00:00Z"),
			"nova_compute": inspectResponse("nova_compute", false, "0001-01-01T00:00:00Z"),
		},
	}
}

func TestInspector_Running(t *testing.T) {
	i := NewInspector(newFakeAPI(), "controller-0")

	tests := []struct {
		name string
		want bool
	}{
		{name: "nova_api", want: true},
		{name: "nova_compute", want: false},
		{name: "nova_missing", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := i.Running(context.Background(), tt.name)
			if err != nil {
				t.Fatalf("Running() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Running() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInspector_Inspect(t *testing.T) {
	i := NewInspector(newFakeAPI(), "controller-0")

	got, err := i.Inspect(context.Background(), "nova_api")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	want := Status{
		Name:      "nova_api",
		ID:        "id-nova_api",
		Image:     "registry.local/nova_api:17.1",
		State:     "running",
		Running:   true,
		StartedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Inspect() mismatch (-want +got):\n%s", diff)
	}

	stopped, err := i.Inspect(context.Background(), "nova_compute")
	if err != nil {
		t.Fatal(err)
	}
	if !stopped.StartedAt.IsZero() {
		t.Errorf("StartedAt = %v, want zero for a never-started container", stopped.StartedAt)
	}

	if _, err := i.Inspect(context.Background(), "nova_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Inspect() error = %v, want ErrNotFound", err)
	}
}

func TestInspector_APIError(t *testing.T) {
	i := NewInspector(&fakeAPI{err: errors.New("Cannot connect to the Docker daemon")}, "controller-0")

	if _, err := i.Running(context.Background(), "nova_api"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Running() error = %v, want a daemon error", err)
	}
	if _, err := DetectContainers(context.Background(), i, "nova_api"); err == nil {
		t.Error("DetectContainers() should fail when the daemon is unreachable")
	}
	if _, err := i.List(context.Background()); err == nil {
		t.Error("List() should fail when the daemon is unreachable")
	}
}

func TestDetectContainers(t *testing.T) {
	i := NewInspector(newFakeAPI(), "controller-0")

	got, err := DetectContainers(context.Background(), i, "nova_api")
	if err != nil || !got {
		t.Errorf("DetectContainers(nova_api) = %v, %v, want true", got, err)
	}

	got, err = DetectContainers(context.Background(), i, "nova_api_missing")
	if err != nil || got {
		t.Errorf("DetectContainers(missing) = %v, %v, want false", got, err)
	}
}

func TestInspector_List(t *testing.T) {
	api := &fakeAPI{list: []container.Summary{
		{ID: "2", Names: []string{"/nova_compute"}, Image: "nova-compute", State: "running", Created: 1792314000},
		{ID: "1", Names: []string{"/nova_api"}, Image: "nova-api", State: "exited"},
		{ID: "3"},
	}}

	got, err := NewInspector(api, "compute-0").List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []Status{
		{ID: "3"},
		{Name: "nova_api", ID: "1", Image: "nova-api", State: "exited"},
		{Name: "nova_compute", ID: "2", Image: "nova-compute", State: "running", Running: true, CreatedAt: time.Unix(1792314000, 0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestStatus_Uptime(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	s := Status{Running: true, StartedAt: now.Add(-3 * time.Hour)}
	if got := s.Uptime(now); got != "3 hours" {
		t.Errorf("Uptime() = %q, want %q", got, "3 hours")
	}

	if got := (Status{StartedAt: now.Add(-time.Hour)}).Uptime(now); got != "" {
		t.Errorf("Uptime() of stopped container = %q, want empty", got)
	}
}

func TestStatus_Age(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	if got := (Status{CreatedAt: now.Add(-48 * time.Hour)}).Age(now); got != "2 days ago" {
		t.Errorf("Age() = %q, want %q", got, "2 days ago")
	}
	if got := (Status{}).Age(now); got != "" {
		t.Errorf("Age() without creation time = %q, want empty", got)
	}
}
