/*
Package config loads docmerge settings from YAML, JSON or an already
decoded map.

# Overview

Config wraps a nested map[string]any and exposes typed accessors that fall
back to a default when a key is missing or holds the wrong type. Keys may be
dotted paths into nested sections:

	cfg := config.New(map[string]any{
	    "templates": map[string]any{"dir": "./templates", "retries": 5},
	})

	dir := cfg.String("templates.dir", "./tpl")     // "./templates"
	retries := cfg.Int("templates.retries", 3)       // 5
	timeout := cfg.Duration("templates.fetch_timeout", 10*time.Second) // 10s

# Settings

Resolve turns a Config into the typed Settings every docmerge component is
built from. Defaults fill anything the file leaves out:

	cfg, err := config.FromFile("docmerge.yaml")
	if err != nil {
	    return err
	}
	settings := config.Resolve(cfg)
	if err := settings.Validate(); err != nil {
	    return err
	}

The CLI feeds viper.AllSettings() into New so flags, DOCMERGE_* environment
variables and the config file all land in the same Settings.

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
