// Package config loads tvgrid's YAML configuration: schedule source, display
// preferences, grid tunables, logging and the schedule server.
package config
