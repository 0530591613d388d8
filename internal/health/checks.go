package health

import (
	"context"
	"fmt"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
	"gitlab.bluewillows.net/root/whitebox/pkg/whitebox"
)

// CommandChecker reports host healthy when `true` runs there through s.
// An empty host is the session's controller.
func CommandChecker(s *remote.Session, host string) HealthChecker {
	return func(ctx context.Context) error {
		_, err := s.Execute(ctx, host, "true")
		return err
	}
}

// ContainerRunner reports whether a named container is running.
// *containers.Inspector implements it.
type ContainerRunner interface {
	Running(ctx context.Context, name string) (bool, error)
}

// ContainerChecker reports healthy while the named container runs.
func ContainerChecker(r ContainerRunner, name string) HealthChecker {
	return func(ctx context.Context) error {
		running, err := r.Running(ctx, name)
		if err != nil {
			return err
		}
		if !running {
			return fmt.Errorf("container %s is not running", name)
		}
		return nil
	}
}

// DatabaseSource yields the discovered database client. *whitebox.Clients
// implements it.
type DatabaseSource interface {
	Database(ctx context.Context) (*whitebox.DatabaseClient, error)
}

// DatabaseDegradedChecker reports degraded while the database connection
// cannot be discovered. Hypervisor and management commands still work
// then, so it does not fail readiness.
func DatabaseDegradedChecker(src DatabaseSource) DegradedChecker {
	return func(ctx context.Context) (bool, string) {
		if _, err := src.Database(ctx); err != nil {
			return true, err.Error()
		}
		return false, ""
	}
}
