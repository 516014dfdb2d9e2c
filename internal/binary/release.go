package binary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Repo is the GitHub repository publishing daemon releases.
const Repo = "centy-io/centy-daemon"

// Resolver turns an optional requested version into a concrete release
// tag using the release index.
type Resolver struct {
	client    *http.Client
	apiBase   string
	userAgent string
}

// NewResolver creates a resolver querying apiBase (e.g.
// "https://api.github.com").
func NewResolver(apiBase, userAgent string, timeout time.Duration) *Resolver {
	return &Resolver{
		client:    &http.Client{Timeout: timeout},
		apiBase:   strings.TrimRight(apiBase, "/"),
		userAgent: userAgent,
	}
}

// Resolve returns the release tag to install. A non-empty requested
// version is normalized and returned without checking the release
// index; a nonexistent pinned version surfaces later as a download
// failure. An empty requested version resolves to the most recently
// published release, pre-releases included.
func (r *Resolver) Resolve(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return NormalizeTag(requested), nil
	}
	return r.latest(ctx)
}

// latest fetches the release list and returns the first entry's tag.
// The index's own ordering (most recently published first) is
// authoritative; re-sorting by semantic version would misorder
// pre-releases relative to publication time.
func (r *Resolver) latest(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", r.apiBase, Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch releases from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release index %s returned status %d", url, resp.StatusCode)
	}

	var releases []struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return "", fmt.Errorf("parse releases JSON: %w", err)
	}

	if len(releases) == 0 || releases[0].TagName == "" {
		return "", fmt.Errorf("no releases found for %s", Repo)
	}

	return releases[0].TagName, nil
}

// NormalizeTag ensures a version string carries the leading "v" marker.
func NormalizeTag(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
