// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// supportedExtensions are the file types worth indexing. Extension-less
// files (README, Makefile-style names) are accepted too.
var supportedExtensions = map[string]bool{
	".md": true, ".txt": true, ".rst": true, ".py": true, ".js": true,
	".ts": true, ".java": true, ".cpp": true, ".c": true, ".h": true,
	".css": true, ".html": true, ".xml": true, ".json": true, ".yaml": true,
	".yml": true, ".toml": true, ".ini": true, ".sh": true, ".bat": true,
	".ps1": true, ".go": true, ".rs": true, ".rb": true, ".php": true,
	".sql": true, ".r": true,
}

var repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/?$`)

// Repo identifies a GitHub repository and branch.
type Repo struct {
	Owner  string
	Name   string
	Branch string
}

// ParseRepoURL extracts owner and name from an https://github.com/owner/repo URL.
func ParseRepoURL(repoURL string) (Repo, error) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSuffix(repoURL, "/"))
	if m == nil {
		return Repo{}, bmerr.Errorf(bmerr.CodeIngestRepoInvalid,
			"invalid GitHub repository URL %q, expected https://github.com/owner/repo", repoURL)
	}
	return Repo{Owner: m[1], Name: strings.TrimSuffix(m[2], ".git")}, nil
}

// RemoteFile is one indexable blob in the repository tree.
type RemoteFile struct {
	Path       string
	Name       string
	Extension  string
	Size       int64
	RawURL     string
	SourceLink string
}

// GitHubClient fetches repository trees and file contents over the GitHub
// REST API. An optional token raises the rate limit.
type GitHubClient struct {
	apiBase string
	rawBase string
	token   string
	client  *http.Client
}

// NewGitHubClient builds a client using GITHUB_TOKEN when set. apiBase and
// rawBase override the live endpoints for testing; pass "" for defaults.
func NewGitHubClient(apiBase, rawBase string) *GitHubClient {
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	if rawBase == "" {
		rawBase = "https://raw.githubusercontent.com"
	}
	return &GitHubClient{
		apiBase: strings.TrimSuffix(apiBase, "/"),
		rawBase: strings.TrimSuffix(rawBase, "/"),
		token:   os.Getenv("GITHUB_TOKEN"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithToken overrides the GITHUB_TOKEN environment value. An empty token is
// ignored.
func (c *GitHubClient) WithToken(token string) *GitHubClient {
	if token != "" {
		c.token = token
	}
	return c
}

func (c *GitHubClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeIngestFetchFailure, "building github request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, bmerr.Wrapf(err, bmerr.CodeIngestFetchFailure, "fetching %s", url)
	}
	return resp, nil
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int64  `json:"size"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// FetchTree lists the supported files on the requested branch. When the
// branch is "main" and does not exist, "master" is tried before giving up.
// The resolved branch is written back into repo.
func (c *GitHubClient) FetchTree(ctx context.Context, repo *Repo) ([]RemoteFile, error) {
	branch := repo.Branch
	if branch == "" {
		branch = "main"
	}

	files, err := c.fetchTreeBranch(ctx, *repo, branch)
	if err != nil && branch == "main" && bmerr.IsNotFound(err) {
		branch = "master"
		files, err = c.fetchTreeBranch(ctx, *repo, branch)
	}
	if err != nil {
		return nil, err
	}

	repo.Branch = branch
	return files, nil
}

func (c *GitHubClient) fetchTreeBranch(ctx context.Context, repo Repo, branch string) ([]RemoteFile, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.apiBase, repo.Owner, repo.Name, branch)
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, bmerr.Errorf(bmerr.CodeIngestBranchNotFound,
			"branch %s of %s/%s not found", branch, repo.Owner, repo.Name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, bmerr.Errorf(bmerr.CodeIngestFetchFailure,
			"github tree request failed (HTTP %d)", resp.StatusCode)
	}

	var tree treeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeIngestFetchFailure, "decoding github tree response")
	}

	var files []RemoteFile
	for _, item := range tree.Tree {
		if item.Type != "blob" {
			continue
		}
		ext := strings.ToLower(path.Ext(item.Path))
		if ext != "" && !supportedExtensions[ext] {
			continue
		}
		files = append(files, RemoteFile{
			Path:       item.Path,
			Name:       path.Base(item.Path),
			Extension:  ext,
			Size:       item.Size,
			RawURL:     fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBase, repo.Owner, repo.Name, branch, item.Path),
			SourceLink: fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", repo.Owner, repo.Name, branch, item.Path),
		})
	}
	return files, nil
}

// FetchFile downloads one file's content. Undecodable binaries return an
// empty string so callers can skip them.
func (c *GitHubClient) FetchFile(ctx context.Context, file RemoteFile) (string, error) {
	resp, err := c.get(ctx, file.RawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", bmerr.Errorf(bmerr.CodeIngestFetchFailure,
			"fetching %s failed (HTTP %d)", file.Path, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", bmerr.Wrapf(err, bmerr.CodeIngestFetchFailure, "reading %s", file.Path)
	}

	if !utf8.Valid(raw) {
		return "", nil
	}
	return string(raw), nil
}
