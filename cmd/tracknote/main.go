// Package main provides the CLI entrypoint for tracknote.
package main

func main() {
	Execute()
}
