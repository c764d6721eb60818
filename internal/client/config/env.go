package config

// parseEnv applies secrets from the environment. The token overrides any
// earlier source; the master secret is only ever read here.
func parseEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	cfg.MasterSecret = getenv(EnvMasterSecret)
}
