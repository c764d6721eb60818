// Package config loads the CLI configuration.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional JSON file named by -c or -config.
//  3. Command-line flags.
//  4. DOCSYNC_TOKEN and DOCSYNC_MASTER_SECRET from the environment.
//
// Durations in the JSON file go through timex.Duration, so both "30s" and
// integer nanoseconds are accepted:
//
//	{
//	  "owner": "octo",
//	  "repo": "notes",
//	  "server_variant": "github",
//	  "request_timeout": "30s",
//	  "proxy": {"mode": "system"}
//	}
//
// The master secret has no JSON field and no flag. It comes from the
// environment or the terminal prompt.
package config
