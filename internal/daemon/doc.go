// Package daemon provides the long-running side of volblock.
// It runs block updates off the output path, and reloads
// configuration when the config file changes.
package daemon
