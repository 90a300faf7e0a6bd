// Package theme loads the user stylesheet layered over the overlay's built-in
// style and reloads it when the file changes.
package theme
