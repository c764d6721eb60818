package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/flagx"
	"github.com/dmitrijs2005/docsync/internal/netx"
)

var knownFlags = []string{
	"owner", "repo", "branch", "server", "base-url",
	"ns", "docs-path", "sensitive",
	"proxy-mode", "proxy-url", "insecure",
	"timeout", "rps",
	"s3-bucket", "s3-region", "s3-endpoint", "s3-path-style",
	"data-dir", "db",
	"log-level", "log-format",
}

// parseFlags overlays cfg with the flags present in args. Flags handled
// elsewhere, such as -c, are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("docsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	variant := string(cfg.ServerVariant)
	proxyMode := string(cfg.ProxyMode)
	sensitive := strings.Join(cfg.SensitiveFields, ",")

	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "repository owner")
	fs.StringVar(&cfg.Repo, "repo", cfg.Repo, "repository name")
	fs.StringVar(&cfg.Branch, "branch", cfg.Branch, "branch to sync")
	fs.StringVar(&variant, "server", variant, "server variant: github, ghes, s3 or memory")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "API base URL for an enterprise server")
	fs.StringVar(&cfg.Namespace, "ns", cfg.Namespace, "remote namespace")
	fs.StringVar(&cfg.DocumentsPath, "docs-path", cfg.DocumentsPath, "documents folder inside the namespace")
	fs.StringVar(&sensitive, "sensitive", sensitive, "comma separated sensitive settings fields")
	fs.StringVar(&proxyMode, "proxy-mode", proxyMode, "proxy mode: none, manual or system")
	fs.StringVar(&cfg.ProxyURL, "proxy-url", cfg.ProxyURL, "proxy URL for manual mode")
	fs.BoolVar(&cfg.InsecureSkipVerify, "insecure", cfg.InsecureSkipVerify, "skip TLS certificate verification")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per request timeout")
	fs.Float64Var(&cfg.RequestsPerSecond, "rps", cfg.RequestsPerSecond, "maximum requests per second")
	fs.StringVar(&cfg.S3.Bucket, "s3-bucket", cfg.S3.Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3.Region, "s3-region", cfg.S3.Region, "S3 region")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", cfg.S3.Endpoint, "S3 endpoint URL")
	fs.BoolVar(&cfg.S3.UsePathStyle, "s3-path-style", cfg.S3.UsePathStyle, "use path style S3 addressing")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "local data directory")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.ServerVariant = models.ServerVariant(variant)
	cfg.ProxyMode = netx.ProxyMode(proxyMode)
	cfg.SensitiveFields = splitList(sensitive)
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
