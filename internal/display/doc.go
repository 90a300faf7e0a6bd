// Package display hosts the tracknote overlay in a GTK4 layer-shell window.
// Host implements overlay.Surface and Scheduler implements overlay.Scheduler
// on top of the GLib main loop.
package display
