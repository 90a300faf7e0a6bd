// Package dbus observes org.freedesktop.Notifications traffic on the session
// bus and reads MPRIS player state. It feeds "now playing" notifications to
// the listener and sends short desktop toasts back out.
package dbus
