package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/dmitrijs2005/docsync/internal/logging"
	"golang.org/x/time/rate"
)

const (
	defaultGitHubAPI = "https://api.github.com"
	apiVersion       = "2022-11-28"
)

// APIError is a non-2xx response from the contents API. It unwraps to the
// taxonomy sentinel matching its status.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// GitHubStore talks to the GitHub (or GitHub Enterprise) repository contents
// API on one branch.
type GitHubStore struct {
	baseURL string
	owner   string
	repo    string
	branch  string
	token   string

	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	log     logging.Logger
}

// NewGitHubStore builds a store over rt. It performs no network calls.
func NewGitHubStore(cfg models.SyncConfig, rt http.RoundTripper, log logging.Logger) *GitHubStore {
	branch := cfg.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &GitHubStore{
		baseURL: apiBaseURL(cfg),
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  branch,
		token:   cfg.Token,
		client:  &http.Client{Transport: rt},
		limiter: rate.NewLimiter(rate.Limit(rps), int(math.Ceil(rps))),
		timeout: cfg.RequestTimeout,
		log:     log.With("remote", cfg.Owner+"/"+cfg.Repo, "branch", branch),
	}
}

func apiBaseURL(cfg models.SyncConfig) string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	switch {
	case base == "":
		return defaultGitHubAPI
	case cfg.ServerVariant == models.VariantGitHubEnterprise && !strings.Contains(base, "/api/"):
		return base + "/api/v3"
	default:
		return base
	}
}

type contentResponse struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
}

type deleteRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

type treeResponse struct {
	SHA       string `json:"sha"`
	Truncated bool   `json:"truncated"`
	Tree      []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
		Size int64  `json:"size"`
	} `json:"tree"`
}

type blobResponse struct {
	SHA      string `json:"sha"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

func (s *GitHubStore) repoPath(parts ...string) string {
	return "/repos/" + url.PathEscape(s.owner) + "/" + url.PathEscape(s.repo) + strings.Join(parts, "")
}

func contentsPath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return "/contents/" + strings.Join(segs, "/")
}

func (s *GitHubStore) Get(ctx context.Context, path string) (*models.RemoteFile, error) {
	var raw json.RawMessage
	err := s.do(ctx, http.MethodGet, s.repoPath(contentsPath(path)), url.Values{"ref": {s.branch}}, nil, &raw)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	if len(raw) > 0 && raw[0] == '[' {
		return nil, fmt.Errorf("get %s: path is a directory", path)
	}
	var c contentResponse
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("get %s: decode response: %w", path, err)
	}

	var content []byte
	if c.Encoding == "base64" && (c.Content != "" || c.Size == 0) {
		content, err = decodeBase64(c.Content)
	} else {
		// Files over 1 MB come back without inline content.
		content, err = s.getBlob(ctx, c.SHA)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	return &models.RemoteFile{Path: path, ContentHash: c.SHA, Content: content}, nil
}

func (s *GitHubStore) getBlob(ctx context.Context, sha string) ([]byte, error) {
	var b blobResponse
	if err := s.do(ctx, http.MethodGet, s.repoPath("/git/blobs/", url.PathEscape(sha)), nil, nil, &b); err != nil {
		return nil, fmt.Errorf("get blob %s: %w", sha, err)
	}
	if b.Encoding != "base64" {
		return []byte(b.Content), nil
	}
	return decodeBase64(b.Content)
}

func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(s, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return b, nil
}

func (s *GitHubStore) Upsert(ctx context.Context, path string, content []byte, message, expectedHash string) (string, error) {
	sha := expectedHash
	if sha == "" {
		current, err := s.Get(ctx, path)
		if err != nil {
			return "", fmt.Errorf("upsert %s: %w", path, err)
		}
		if current != nil {
			sha = current.ContentHash
		}
	}

	req := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.branch,
		SHA:     sha,
	}
	var resp putResponse
	if err := s.do(ctx, http.MethodPut, s.repoPath(contentsPath(path)), nil, req, &resp); err != nil {
		return "", fmt.Errorf("upsert %s: %w", path, err)
	}

	s.log.Debug(ctx, "file written", "path", path, "sha", resp.Content.SHA)
	return resp.Content.SHA, nil
}

func (s *GitHubStore) Delete(ctx context.Context, path, message, hash string) error {
	if hash == "" {
		current, err := s.Get(ctx, path)
		if err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		if current == nil {
			return nil
		}
		hash = current.ContentHash
	}

	req := deleteRequest{Message: message, SHA: hash, Branch: s.branch}
	err := s.do(ctx, http.MethodDelete, s.repoPath(contentsPath(path)), nil, req, nil)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *GitHubStore) ListDir(ctx context.Context, dir string) ([]string, error) {
	var raw json.RawMessage
	err := s.do(ctx, http.MethodGet, s.repoPath(contentsPath(dir)), url.Values{"ref": {s.branch}}, nil, &raw)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	if len(raw) > 0 && raw[0] != '[' {
		var c contentResponse
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("list %s: decode response: %w", dir, err)
		}
		return []string{c.Path}, nil
	}

	var entries []contentResponse
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("list %s: decode response: %w", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}

func (s *GitHubStore) WalkTree(ctx context.Context, recursive bool) ([]models.TreeEntry, error) {
	q := url.Values{}
	if recursive {
		q.Set("recursive", "1")
	}

	var t treeResponse
	err := s.do(ctx, http.MethodGet, s.repoPath("/git/trees/", url.PathEscape(s.branch)), q, nil, &t)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk tree: %w", err)
	}
	if t.Truncated {
		s.log.Warn(ctx, "tree listing truncated by remote", "entries", len(t.Tree))
	}

	entries := make([]models.TreeEntry, 0, len(t.Tree))
	for _, e := range t.Tree {
		entries = append(entries, models.TreeEntry{Path: e.Path, Type: models.EntryType(e.Type), Hash: e.SHA, Size: e.Size})
	}
	return entries, nil
}

func (s *GitHubStore) Ping(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, s.repoPath(), nil, nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *GitHubStore) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", common.ErrTransient, err)
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(callCtx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", common.ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	s.log.Debug(ctx, "remote call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: decode response: %v", common.ErrTransient, err)
		}
		return nil
	}

	return newAPIError(method, resp)
}

func newAPIError(method string, resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(b, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(b))
	}

	e := &APIError{Status: resp.StatusCode, Message: payload.Message}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		e.kind = common.ErrNotFound
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusPreconditionFailed:
		e.kind = common.ErrConflict
	case resp.StatusCode == http.StatusUnprocessableEntity && method != http.MethodGet:
		// The contents API answers 422 when a sha is missing for an
		// existing file or does not match it.
		e.kind = common.ErrConflict
	case resp.StatusCode == http.StatusTooManyRequests:
		e.kind = common.ErrTransient
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		e.kind = common.ErrTransient
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		e.kind = common.ErrUnauthorized
	case resp.StatusCode >= 500:
		e.kind = common.ErrTransient
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		e.kind = common.ErrValidation
	}
	return e
}
