package container

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// DesktopPortal is the hook point a Spawner implementation can use to ask a
// logind-style desktop session manager for the seat a spawned application
// should render into, instead of assuming seat0. This module never calls
// it on its own — the session engine only needs a Spawner, and a given
// deployment's Spawner is free to use this, a plain exec, or a Kubernetes
// client underneath.
type DesktopPortal struct {
	conn *dbus.Conn
}

// ConnectDesktopPortal dials the system bus for logind session queries.
func ConnectDesktopPortal(ctx context.Context) (*DesktopPortal, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &DesktopPortal{conn: conn}, nil
}

// SeatForSession asks logind which seat a given login session is attached
// to, via org.freedesktop.login1.Session.Seat.
func (p *DesktopPortal) SeatForSession(sessionID string) (string, error) {
	obj := p.conn.Object("org.freedesktop.login1", sessionObjectPath(sessionID))
	v, err := obj.GetProperty("org.freedesktop.login1.Session.Seat")
	if err != nil {
		return "", fmt.Errorf("get seat property: %w", err)
	}
	seat, ok := v.Value().([]interface{})
	if !ok || len(seat) == 0 {
		return "", fmt.Errorf("unexpected seat property shape: %v", v)
	}
	id, _ := seat[0].(string)
	return id, nil
}

// Close releases the bus connection.
func (p *DesktopPortal) Close() error { return p.conn.Close() }

func sessionObjectPath(sessionID string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/login1/session/%s", sessionID))
}
