// Package container defines the interfaces the session engine consumes from
// an external container runtime. Nothing in this package spawns a process or
// talks to a container manager directly — that collaborator lives outside
// this module, per the out-of-scope boundary in the session engine's spec.
// Implementations live in whatever deployment wires a real runtime (systemd,
// a Kubernetes operator, a bespoke launcher) behind these interfaces.
package container

import "context"

// Spawner launches an application's container and returns a handle to it.
// A real implementation might shell out to a container runtime's CLI, or
// talk to a desktop session portal over D-Bus (see ConnectDesktopPortal for
// the one piece of that wiring this module does own).
type Spawner interface {
	Spawn(ctx context.Context, appID string, command []string, env map[string]string) (ContainerHandle, error)
}

// ContainerHandle represents a spawned application container. The session
// control loop waits on it to detect the application exiting, and stops it
// during session teardown.
type ContainerHandle interface {
	// Wait blocks until the container process exits and returns its exit
	// status, or ctx's error if ctx is canceled first.
	Wait(ctx context.Context) (ExitStatus, error)
	// Stop requests termination, escalating after grace elapses.
	Stop(ctx context.Context) error
	// FuseMount returns the mount point exposed to the application for
	// shared files (screenshots, save data), or "" if none was requested.
	FuseMount() string
}

// ExitStatus reports how a container's entrypoint process exited.
type ExitStatus struct {
	Code     int
	Signaled bool
	Signal   string
}

// Success reports whether the container exited cleanly.
func (s ExitStatus) Success() bool { return !s.Signaled && s.Code == 0 }
