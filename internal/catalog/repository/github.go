package repository

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/armoryshop/armory-backend/internal/catalog"
	"github.com/armoryshop/armory-backend/pkg/metrics"
)

const (
	defaultGitHubBaseURL = "https://api.github.com"
	githubAccept         = "application/vnd.github.v3+json"
	commitMessage        = "Update store data from admin panel"
)

// GitHubOptions configures the GitHub-backed document store.
type GitHubOptions struct {
	Token    string
	Owner    string
	Repo     string
	Branch   string
	FilePath string
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
	// Timeout bounds every remote call; expiry surfaces as ErrRemoteUnavailable.
	Timeout time.Duration
}

// GitHubStore persists the catalog document as a single file in a GitHub
// repository through the Contents API. Every successful write creates a new
// commit on the configured branch.
type GitHubStore struct {
	client   *http.Client
	baseURL  string
	token    string
	owner    string
	repo     string
	branch   string
	filePath string
}

func NewGitHubStore(opts GitHubOptions) *GitHubStore {
	base := opts.BaseURL
	if base == "" {
		base = defaultGitHubBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GitHubStore{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(base, "/"),
		token:    opts.Token,
		owner:    opts.Owner,
		repo:     opts.Repo,
		branch:   opts.Branch,
		filePath: opts.FilePath,
	}
}

func (s *GitHubStore) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.baseURL, s.owner, s.repo, s.filePath)
}

func (s *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", githubAccept)
}

// Fetch reads the store file at the configured branch and returns the decoded
// content plus the blob SHA as version token.
func (s *GitHubStore) Fetch(ctx context.Context) ([]byte, string, error) {
	metrics.RemoteRequests.WithLabelValues("fetch").Inc()

	u := s.contentsURL() + "?ref=" + url.QueryEscape(s.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RemoteFailures.WithLabelValues("fetch").Inc()
		return nil, "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RemoteFailures.WithLabelValues("fetch").Inc()
		return nil, "", fmt.Errorf("%w: fetch returned %s", ErrRemoteUnavailable, resp.Status)
	}

	var body struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.RemoteFailures.WithLabelValues("fetch").Inc()
		return nil, "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	// GitHub returns base64 with embedded newlines
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("%w: bad base64 payload: %v", catalog.ErrMalformedDocument, err)
	}
	return raw, body.SHA, nil
}

// Write overwrites the store file with a fixed commit message, supplying the
// prior blob SHA as precondition. A stale SHA is rejected by GitHub with
// 409/422 and surfaces as ErrVersionConflict.
func (s *GitHubStore) Write(ctx context.Context, data []byte, version string) (string, error) {
	metrics.RemoteRequests.WithLabelValues("write").Inc()

	payload := map[string]string{
		"message": commitMessage,
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  s.branch,
	}
	if version != "" {
		payload["sha"] = version
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RemoteFailures.WithLabelValues("write").Inc()
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		metrics.RemoteFailures.WithLabelValues("write").Inc()
		return "", fmt.Errorf("%w: write rejected with %s", ErrVersionConflict, resp.Status)
	default:
		metrics.RemoteFailures.WithLabelValues("write").Inc()
		return "", fmt.Errorf("%w: write returned %s", ErrRemoteUnavailable, resp.Status)
	}

	var body struct {
		Content struct {
			SHA string `json:"sha"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return body.Content.SHA, nil
}
