package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for known cubes and application
// preferences; nothing in it is required for the protocol itself.
type Registry struct {
	Version     int               `yaml:"version"`
	Cubes       map[string]*Cube  `yaml:"cubes,omitempty"`        // Keyed by cube serial number
	DeviceNames map[string]string `yaml:"device_names,omitempty"` // Nicknames keyed by rf address
	Preferences *Preferences      `yaml:"preferences,omitempty"`
}

// Cube represents user-defined metadata for a single hub.
// This is keyed by the cube's serial number in the Registry.
type Cube struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	Host     string    `yaml:"host,omitempty"`      // Last known address
	Port     int       `yaml:"port,omitempty"`      // Command port, 0 = protocol default
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`          // Run UDP discovery when no host is given
	DiscoverTimeout int    `yaml:"discover_timeout"`       // Discovery timeout in seconds
	DefaultCube     string `yaml:"default_cube,omitempty"` // Serial used when several cubes are known
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Cubes:       make(map[string]*Cube),
		DeviceNames: make(map[string]string),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 5,
		},
	}
}

// GetCube retrieves cube metadata by serial number.
// Returns nil if the cube doesn't exist in the registry.
func (r *Registry) GetCube(serial string) *Cube {
	return r.Cubes[serial]
}

// EnsureCube ensures a cube entry exists in the registry.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureCube(serial string) *Cube {
	if r.Cubes == nil {
		r.Cubes = make(map[string]*Cube)
	}

	if cube, exists := r.Cubes[serial]; exists {
		return cube
	}

	cube := &Cube{}
	r.Cubes[serial] = cube
	return cube
}

// UpdateCubeLastSeen records where and when a cube was last reached.
func (r *Registry) UpdateCubeLastSeen(serial, host string, port int) {
	cube := r.EnsureCube(serial)
	cube.Host = host
	cube.Port = port
	cube.LastSeen = time.Now()
}

// SetCubeNickname sets a user-friendly nickname for a cube.
func (r *Registry) SetCubeNickname(serial, nickname string) {
	cube := r.EnsureCube(serial)
	cube.Nickname = nickname
}

// SetDeviceName sets a nickname for a radiator/wall thermostat/contact,
// keyed by its rf address. An empty name removes the entry.
func (r *Registry) SetDeviceName(rfAddress, name string) {
	if r.DeviceNames == nil {
		r.DeviceNames = make(map[string]string)
	}
	if name == "" {
		delete(r.DeviceNames, rfAddress)
		return
	}
	r.DeviceNames[rfAddress] = name
}

// DeviceName returns the configured nickname for a device, or fallback when
// none is set.
func (r *Registry) DeviceName(rfAddress, fallback string) string {
	if name, ok := r.DeviceNames[rfAddress]; ok {
		return name
	}
	return fallback
}

// DefaultCube resolves the cube to use when the caller named none: the
// configured default if set, otherwise the only known cube, otherwise nil.
func (r *Registry) DefaultCube() (string, *Cube) {
	if r.Preferences != nil && r.Preferences.DefaultCube != "" {
		if cube, ok := r.Cubes[r.Preferences.DefaultCube]; ok {
			return r.Preferences.DefaultCube, cube
		}
	}
	if len(r.Cubes) == 1 {
		for serial, cube := range r.Cubes {
			return serial, cube
		}
	}
	return "", nil
}
