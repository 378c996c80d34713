// Package portal talks to xdg-desktop-portal over the D-Bus session bus.
package portal

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	ObjectName        = "org.freedesktop.portal.Desktop"
	ObjectPath        = "/org/freedesktop/portal/desktop"
	CallBaseName      = "org.freedesktop.portal"
	PropertiesGetName = "org.freedesktop.DBus.Properties.Get"
)

func call(ctx context.Context, conn *dbus.Conn, callName string, args ...any) (*dbus.Call, error) {
	obj := conn.Object(ObjectName, ObjectPath)
	c := obj.CallWithContext(ctx, callName, 0, args...)
	return c, c.Err
}

// GetProperty reads one property of a portal interface.
func GetProperty(interfaceName, property string) (any, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	c, err := call(context.Background(), conn, PropertiesGetName, interfaceName, property)
	if err != nil {
		return nil, err
	}

	var value dbus.Variant
	if err := c.Store(&value); err != nil {
		return nil, err
	}
	return value.Value(), nil
}
