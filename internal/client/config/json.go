package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/flagx"
	"github.com/dmitrijs2005/docsync/internal/netx"
	"github.com/dmitrijs2005/docsync/internal/timex"
)

// JSONConfig is used only for unmarshalling the config file. Empty strings
// and nil pointers leave the current value untouched.
type JSONConfig struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	Branch        string `json:"branch"`
	Token         string `json:"token"`
	ServerVariant string `json:"server_variant"`
	BaseURL       string `json:"base_url"`

	Namespace       string   `json:"namespace"`
	DocumentsPath   string   `json:"documents_path"`
	SensitiveFields []string `json:"sensitive_fields"`

	Proxy struct {
		Mode               string `json:"mode"`
		URL                string `json:"url"`
		InsecureSkipVerify *bool  `json:"insecure_skip_verify"`
	} `json:"proxy"`

	RequestTimeout    *timex.Duration `json:"request_timeout"`
	RequestsPerSecond *float64        `json:"requests_per_second"`

	S3 *models.S3Options `json:"s3"`

	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`

	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJSON overlays cfg with the file named by -c / -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Owner, jc.Owner)
	setString(&cfg.Repo, jc.Repo)
	setString(&cfg.Branch, jc.Branch)
	setString(&cfg.Token, jc.Token)
	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.Namespace, jc.Namespace)
	setString(&cfg.DocumentsPath, jc.DocumentsPath)
	setString(&cfg.ProxyURL, jc.Proxy.URL)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogLevel, jc.Log.Level)
	setString(&cfg.LogFormat, jc.Log.Format)

	if jc.ServerVariant != "" {
		cfg.ServerVariant = models.ServerVariant(jc.ServerVariant)
	}
	if jc.Proxy.Mode != "" {
		cfg.ProxyMode = netx.ProxyMode(jc.Proxy.Mode)
	}
	if jc.Proxy.InsecureSkipVerify != nil {
		cfg.InsecureSkipVerify = *jc.Proxy.InsecureSkipVerify
	}
	if jc.SensitiveFields != nil {
		cfg.SensitiveFields = jc.SensitiveFields
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *jc.RequestsPerSecond
	}
	if jc.S3 != nil {
		cfg.S3 = *jc.S3
	}
	return nil
}
