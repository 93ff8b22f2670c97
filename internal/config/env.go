package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name, e.g. RELAY_HTTP_ADDR.
const EnvPrefix = "RELAY_"

// FromEnv overlays RELAY_* environment variables onto cfg. Variables found in
// the optional dotenv files are loaded first; already-set process variables win.
// Fields whose variable is unset keep their current value.
func FromEnv(cfg *Config, dotenv ...string) error {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}
