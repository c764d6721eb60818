package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/netx"
)

const (
	EnvToken        = "DOCSYNC_TOKEN"
	EnvMasterSecret = "DOCSYNC_MASTER_SECRET"
)

// Config holds runtime settings for the docsync CLI.
type Config struct {
	Owner         string
	Repo          string
	Branch        string
	Token         string
	ServerVariant models.ServerVariant
	BaseURL       string

	Namespace       string
	DocumentsPath   string
	SensitiveFields []string

	ProxyMode          netx.ProxyMode
	ProxyURL           string
	InsecureSkipVerify bool

	RequestTimeout    time.Duration
	RequestsPerSecond float64

	S3 models.S3Options

	DataDir      string
	DatabasePath string

	LogLevel  string
	LogFormat string

	MasterSecret string
}

func (c *Config) LoadDefaults() {
	c.Branch = "main"
	c.ServerVariant = models.VariantGitHub
	c.Namespace = "sepilot"
	c.DocumentsPath = "documents"
	c.SensitiveFields = append([]string(nil), models.DefaultSensitiveFields...)
	c.ProxyMode = netx.ProxyNone
	c.RequestTimeout = 30 * time.Second
	c.RequestsPerSecond = 10
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load builds a Config from args (without the program name) and getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, getenv)

	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.Getenv)
}

// ResolveDatabasePath returns DatabasePath, or docsync.db inside dataDir
// when it is unset.
func (c *Config) ResolveDatabasePath(dataDir string) string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(dataDir, "docsync.db")
}

// SyncConfig projects the remote target handed to the store layer.
func (c *Config) SyncConfig() models.SyncConfig {
	return models.SyncConfig{
		Owner:         c.Owner,
		Repo:          c.Repo,
		Branch:        c.Branch,
		Token:         c.Token,
		ServerVariant: c.ServerVariant,
		BaseURL:       c.BaseURL,
		Network: netx.Options{
			ProxyMode:          c.ProxyMode,
			ProxyURL:           c.ProxyURL,
			InsecureSkipVerify: c.InsecureSkipVerify,
		},
		S3:                c.S3,
		RequestTimeout:    c.RequestTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}
