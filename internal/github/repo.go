package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Tag keys produced by RepoTags.
const (
	TagLanguage      = "language"
	TagTopics        = "topics"
	TagVisibility    = "visibility"
	TagDefaultBranch = "default_branch"
	TagArchived      = "archived"
)

// SplitRepository parses "OWNER/REPO".
func SplitRepository(full string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(full), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected OWNER/REPO", full)
	}
	return owner, repo, nil
}

// RepoTags fetches repository metadata and flattens it into repo tags.
// Empty values are omitted; topics are sorted and comma-joined.
func (c *Client) RepoTags(ctx context.Context, owner, repo string) (map[string]string, error) {
	r, _, err := c.Client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}

	tags := make(map[string]string)
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			tags[k] = v
		}
	}
	set(TagLanguage, strings.ToLower(r.GetLanguage()))
	set(TagVisibility, r.GetVisibility())
	if r.GetVisibility() == "" && r.Private != nil {
		if r.GetPrivate() {
			set(TagVisibility, "private")
		} else {
			set(TagVisibility, "public")
		}
	}
	set(TagDefaultBranch, r.GetDefaultBranch())
	if r.GetArchived() {
		set(TagArchived, "true")
	}
	if len(r.Topics) > 0 {
		topics := append([]string(nil), r.Topics...)
		sort.Strings(topics)
		set(TagTopics, strings.Join(topics, ","))
	}
	return tags, nil
}

// MergeTags overlays configured tags onto fetched ones. Configured values win.
func MergeTags(fetched, configured map[string]string) map[string]string {
	out := make(map[string]string, len(fetched)+len(configured))
	for k, v := range fetched {
		out[k] = v
	}
	for k, v := range configured {
		out[k] = v
	}
	return out
}
