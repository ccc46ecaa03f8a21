// Package config defines configuration structures for the getter CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (GETTER_ prefix), optionally from a .env file
//   - YAML configuration file
//
// Flags override the environment, which overrides the file.
//
// # Example file
//
//	url: example.com/images/disk.iso
//	output: disk.iso
//	workers: 8
//	port: 80
//	dial_timeout: 5s
//	io_timeout: 10m
//	buffer_size: 64KB
//	legacy_headers: false
//	progress: true
//	max_consecutive_failures: 3
package config
