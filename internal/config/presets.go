package config

var Presets = map[string]*Config{
	"tiny": {
		Resolution: 1, Scale: 2, MaxIterations: 1, DistanceThreshold: 10,
		Power: 4, Blend: 0.5, KeyMode: "coordinate",
	},
	"classic": {
		Resolution: 32, Scale: 2, MaxIterations: 10, DistanceThreshold: 2,
		Power: 4, Blend: 0.5, KeyMode: "coordinate",
	},
	"dense": {
		Resolution: 64, Scale: 2, MaxIterations: 20, DistanceThreshold: 2,
		Power: 4, Blend: 0.5, KeyMode: "coordinate",
	},
	"octic": {
		Resolution: 48, Scale: 2.4, MaxIterations: 12, DistanceThreshold: 2.2,
		Power: 8, Blend: 0.5, KeyMode: "lattice",
	},
	"core": {
		Resolution: 40, Scale: 0.8, MaxIterations: 30, DistanceThreshold: 1,
		Power: 4, Blend: 0.5, KeyMode: "lattice",
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
