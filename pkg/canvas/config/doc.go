/*
Package config provides type-safe configuration extraction for the canvas.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values. Keys
are dotted paths resolved through nested maps, matching how YAML and JSON
config files nest sections:

	autosave:
	  interval: 1s
	persistence:
	  base_url: https://api.example.com

	cfg.Duration("autosave.interval", time.Second)  // 1s
	cfg.String("persistence.base_url", "")          // "https://api.example.com"

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("30s", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

Numeric types handle reasonable conversions:
  - int from float64 (only without a fractional part)
  - float64 from int

All methods return the default value if the key is missing or the value
cannot be converted to the requested type.

# Canvas Settings

Settings names every key the editor reads:

	cfg, err := config.FromFile("canvas.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	settings := config.NewSettings(cfg)
	interval := settings.AutosaveInterval()

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
