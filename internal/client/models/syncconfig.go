package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/dmitrijs2005/docsync/internal/netx"
)

// ServerVariant selects the remote store backend.
type ServerVariant string

const (
	VariantGitHub           ServerVariant = "github"
	VariantGitHubEnterprise ServerVariant = "ghes"
	VariantS3               ServerVariant = "s3"
	VariantMemory           ServerVariant = "memory"
)

// S3Options configures the S3-compatible backend.
type S3Options struct {
	Bucket          string `json:"bucket,omitempty"`
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	UsePathStyle    bool   `json:"usePathStyle,omitempty"`
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
}

// SyncConfig identifies one remote target. It is read-only to the engine; a
// store client is built per distinct value and never mutated.
type SyncConfig struct {
	Owner         string        `json:"owner"`
	Repo          string        `json:"repo"`
	Branch        string        `json:"branch"`
	Token         string        `json:"token"`
	ServerVariant ServerVariant `json:"serverVariant"`
	BaseURL       string        `json:"baseUrl,omitempty"`

	Network netx.Options `json:"network"`
	S3      S3Options    `json:"s3"`

	RequestTimeout    time.Duration `json:"requestTimeout"`
	RequestsPerSecond float64       `json:"requestsPerSecond"`
}

// Validate checks the fields required by the selected backend.
func (c SyncConfig) Validate() error {
	switch c.ServerVariant {
	case VariantGitHub, VariantGitHubEnterprise, "":
		if c.Owner == "" || c.Repo == "" {
			return fmt.Errorf("%w: remote repository (owner/repo) is not selected", common.ErrValidation)
		}
		if c.ServerVariant == VariantGitHubEnterprise && c.BaseURL == "" {
			return fmt.Errorf("%w: enterprise server requires a base URL", common.ErrValidation)
		}
	case VariantS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: s3 bucket is not set", common.ErrValidation)
		}
	case VariantMemory:
	default:
		return fmt.Errorf("%w: unknown server variant %q", common.ErrValidation, c.ServerVariant)
	}
	return nil
}

// Key identifies the configuration for client caching. Secrets are folded
// into a digest rather than kept in clear.
func (c SyncConfig) Key() string {
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
