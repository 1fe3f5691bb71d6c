// Package config provides user configuration management for the maxcube tools.
//
// This package manages a YAML-based configuration file that stores user-defined
// metadata: known cubes (keyed by serial number), nicknames for thermostats and
// window contacts (keyed by rf address), and application preferences. Nothing
// in it is required by the protocol; the file only saves the user from typing
// --host on every invocation.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/maxcube/config.yaml or $HOME/.config/maxcube/config.yaml
//   - macOS: $HOME/.config/maxcube/config.yaml
//   - Windows: %LOCALAPPDATA%\maxcube\config.yaml
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Record where a cube was last reached
//	registry.UpdateCubeLastSeen("KEQ0523864", "192.168.1.100", 62910)
//	registry.SetCubeNickname("KEQ0523864", "Hallway Cube")
//
//	// Name a radiator thermostat
//	registry.SetDeviceName("0fc380", "Living Room Radiator")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
