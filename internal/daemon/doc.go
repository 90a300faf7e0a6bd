// Package daemon wires the tracknoted components together: the annotation
// store and its file watcher, the playback broadcaster, the notification
// listener with its reconnect loop, config hot reload and toast feedback.
package daemon
