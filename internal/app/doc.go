// Package app wires the registry, its collaborators and the HTTP surface
// into a runnable service, decoupled from any specific entrypoint like a CLI.
package app
