package facts

import (
	"sort"
	"strings"
)

// Snapshot is the set of observable repository facts collected by Extract.
//
// All paths are relative to Root, use forward slashes and are sorted.
// A Snapshot must not be modified once Extract has returned it.
type Snapshot struct {
	Root string `json:"root"`

	Files       []string         `json:"files"`
	SourceFiles []string         `json:"source_files"`
	TestFiles   []string         `json:"test_files"`
	Sizes       map[string]int64 `json:"sizes"`

	ReadmePath     string   `json:"readme_path,omitempty"`
	ReadmeContent  string   `json:"-"`
	ReadmeHeadings []string `json:"readme_headings,omitempty"`

	LicensePath    string `json:"license_path,omitempty"`
	LicenseContent string `json:"-"`

	HasGitignore bool `json:"has_gitignore"`

	CIFiles []string `json:"ci_files,omitempty"`
	// WorkflowContents holds the text of each CI configuration file, keyed by path.
	WorkflowContents map[string]string `json:"-"`

	LanguageMarkers map[string][]string `json:"language_markers,omitempty"`

	BinaryFiles []string `json:"binary_files,omitempty"`

	Skipped []SkippedEntry `json:"skipped,omitempty"`

	RepoTags map[string]string `json:"repo_tags,omitempty"`
}

type LargeFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// SkippedEntry is a path the traversal did not descend into or could not read.
type SkippedEntry struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (s *Snapshot) HasReadme() bool  { return s != nil && s.ReadmePath != "" }
func (s *Snapshot) HasLicense() bool { return s != nil && s.LicensePath != "" }
func (s *Snapshot) HasCI() bool      { return s != nil && len(s.CIFiles) > 0 }

// Languages returns the detected language names in sorted order.
func (s *Snapshot) Languages() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(s.LanguageMarkers)+1)
	for lang := range s.LanguageMarkers {
		seen[lang] = struct{}{}
	}
	if lang := s.RepoTags["language"]; lang != "" {
		seen[strings.ToLower(lang)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// RepoTag returns the repository tag for key, or "" when unset.
func (s *Snapshot) RepoTag(key string) string {
	if s == nil {
		return ""
	}
	return s.RepoTags[key]
}
