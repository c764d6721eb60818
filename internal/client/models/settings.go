package models

import (
	"encoding/json"
	"fmt"
)

// Settings is the application configuration synced to <ns>/settings.json.
// Optional sections are pointers: a nil section is absent in this schema
// version and its sensitive fields are skipped.
type Settings struct {
	LLM       *LLMSettings       `json:"llm,omitempty"`
	Embedding *EmbeddingSettings `json:"embedding,omitempty"`
	VectorDB  *VectorDBSettings  `json:"vectorDB,omitempty"`
	Network   *NetworkSettings   `json:"network,omitempty"`
	GitHub    *GitHubSettings    `json:"github,omitempty"`

	// UI is carried verbatim; nothing in it is sensitive.
	UI json.RawMessage `json:"ui,omitempty"`
}

type LLMSettings struct {
	Provider    string          `json:"provider,omitempty"`
	BaseURL     string          `json:"baseURL,omitempty"`
	APIKey      string          `json:"apiKey,omitempty"`
	Model       string          `json:"model,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"maxTokens,omitempty"`
	Vision      *VisionSettings `json:"vision,omitempty"`
}

type VisionSettings struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty"`
	BaseURL  string `json:"baseURL,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
	Model    string `json:"model,omitempty"`
}

type EmbeddingSettings struct {
	Provider  string `json:"provider,omitempty"`
	BaseURL   string `json:"baseURL,omitempty"`
	APIKey    string `json:"apiKey,omitempty"`
	Model     string `json:"model,omitempty"`
	Dimension int    `json:"dimension,omitempty"`
}

type VectorDBSettings struct {
	Type       string `json:"type,omitempty"`
	Host       string `json:"host,omitempty"`
	Collection string `json:"collection,omitempty"`
	APIKey     string `json:"apiKey,omitempty"`
}

type NetworkSettings struct {
	Proxy     *ProxySettings `json:"proxy,omitempty"`
	SSLVerify *bool          `json:"sslVerify,omitempty"`
}

type ProxySettings struct {
	Enabled  bool   `json:"enabled"`
	Mode     string `json:"mode,omitempty"`
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// GitHubSettings holds the sync target. Token is the sync credential and is
// never written to the remote.
type GitHubSettings struct {
	ServerType string `json:"serverType,omitempty"`
	GHESURL    string `json:"ghesUrl,omitempty"`
	Owner      string `json:"owner,omitempty"`
	Repo       string `json:"repo,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Token      string `json:"token,omitempty"`
}

// SensitiveSettingsFields maps each dotted field path to an accessor that
// returns the leaf, or nil when an enclosing section is absent.
var SensitiveSettingsFields = map[string]func(*Settings) *string{
	"llm.apiKey": func(s *Settings) *string {
		if s.LLM == nil {
			return nil
		}
		return &s.LLM.APIKey
	},
	"llm.vision.apiKey": func(s *Settings) *string {
		if s.LLM == nil || s.LLM.Vision == nil {
			return nil
		}
		return &s.LLM.Vision.APIKey
	},
	"embedding.apiKey": func(s *Settings) *string {
		if s.Embedding == nil {
			return nil
		}
		return &s.Embedding.APIKey
	},
	"vectorDB.apiKey": func(s *Settings) *string {
		if s.VectorDB == nil {
			return nil
		}
		return &s.VectorDB.APIKey
	},
	"network.proxy.password": func(s *Settings) *string {
		if s.Network == nil || s.Network.Proxy == nil {
			return nil
		}
		return &s.Network.Proxy.Password
	},
}

// DefaultSensitiveFields is the field list applied when config names none.
var DefaultSensitiveFields = []string{
	"llm.apiKey",
	"llm.vision.apiKey",
	"embedding.apiKey",
	"vectorDB.apiKey",
	"network.proxy.password",
}

// Clone returns a deep copy.
func (s *Settings) Clone() (*Settings, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("clone settings: %w", err)
	}
	var c Settings
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("clone settings: %w", err)
	}
	return &c, nil
}

// StripCredentials removes the sync credential.
func (s *Settings) StripCredentials() {
	if s.GitHub != nil {
		s.GitHub.Token = ""
	}
}

// RestoreCredentials copies the sync credential stripped on push back from
// local. A token already present in s is kept.
func (s *Settings) RestoreCredentials(local *Settings) {
	if local == nil || local.GitHub == nil || local.GitHub.Token == "" {
		return
	}
	if s.GitHub == nil {
		s.GitHub = &GitHubSettings{}
	}
	if s.GitHub.Token == "" {
		s.GitHub.Token = local.GitHub.Token
	}
}
