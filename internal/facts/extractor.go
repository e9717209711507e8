// Package facts walks a repository once and records what policy rules need to know about it.
package facts

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"repopolicy/internal/glob"
)

const DefaultLargeFileThreshold int64 = 10 * 1024 * 1024

var (
	readmeNames  = []string{"README.md", "README.rst", "README.txt", "README", "readme.md"}
	licenseNames = []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING", "license", "License.txt"}

	ciConfigFiles = []string{
		".gitlab-ci.yml",
		".travis.yml",
		".circleci/config.yml",
		"azure-pipelines.yml",
		"Jenkinsfile",
		"bitbucket-pipelines.yml",
		".drone.yml",
	}

	languageMarkers = map[string][]string{
		"python":     {"setup.py", "pyproject.toml", "requirements.txt", "Pipfile"},
		"javascript": {"package.json", "package-lock.json", "yarn.lock"},
		"typescript": {"tsconfig.json"},
		"java":       {"pom.xml", "build.gradle", "build.gradle.kts"},
		"go":         {"go.mod", "go.sum"},
		"rust":       {"Cargo.toml", "Cargo.lock"},
		"ruby":       {"Gemfile", "Gemfile.lock"},
		"php":        {"composer.json", "composer.lock"},
		"csharp":     {"**/*.csproj", "**/*.sln"},
	}

	binaryExtensions = map[string]struct{}{
		".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".a": {}, ".o": {}, ".obj": {},
		".bin": {}, ".dat": {}, ".db": {}, ".sqlite": {}, ".sqlite3": {},
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".ico": {},
		".pdf": {}, ".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {}, ".7z": {},
		".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {},
		".jar": {}, ".war": {}, ".ear": {}, ".class": {},
		".pyc": {}, ".pyo": {}, ".whl": {},
	}
)

// Options controls file classification.
type Options struct {
	SourceGlobs glob.Set
	TestGlobs   glob.Set

	// SkipDirs are repository-relative directories that are not traversed,
	// typically the run's own output directory.
	SkipDirs []string

	RepoTags map[string]string
	Logger   *slog.Logger
}

type walkEntry struct {
	abs string
	rel string
}

// Extract traverses root and returns its Snapshot.
//
// The traversal uses an explicit stack, never follows symbolic links and
// records unreadable entries in Snapshot.Skipped instead of failing.
// Only a missing root or a canceled context produce an error.
func Extract(ctx context.Context, root string, opts Options) (*Snapshot, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", absRoot)
	}

	skipDirs := make(map[string]struct{}, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		d = strings.Trim(glob.Normalize(d), "/")
		if d != "" && d != "." {
			skipDirs[d] = struct{}{}
		}
	}

	snap := &Snapshot{
		Root:             absRoot,
		Sizes:            make(map[string]int64),
		WorkflowContents: make(map[string]string),
		LanguageMarkers:  make(map[string][]string),
		RepoTags:         copyTags(opts.RepoTags),
	}

	stack := []walkEntry{{abs: absRoot, rel: ""}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// On error ReadDir still returns the entries read before it failed.
		entries, err := readDir(dir.abs)
		if err != nil {
			logger.Warn("directory not fully readable", "path", displayPath(dir.rel), "error", err, "entries", len(entries))
			snap.Skipped = append(snap.Skipped, SkippedEntry{Path: displayPath(dir.rel), Reason: err.Error()})
		}

		// ReadDir is sorted; push in reverse so directories are visited in order.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			rel := path.Join(dir.rel, e.Name())
			abs := filepath.Join(dir.abs, e.Name())

			if e.Type()&fs.ModeSymlink != 0 {
				snap.Skipped = append(snap.Skipped, SkippedEntry{Path: rel, Reason: "symlink"})
				continue
			}
			if e.IsDir() {
				if e.Name() == ".git" {
					continue
				}
				if _, skip := skipDirs[rel]; skip {
					continue
				}
				stack = append(stack, walkEntry{abs: abs, rel: rel})
				continue
			}
			if !e.Type().IsRegular() {
				snap.Skipped = append(snap.Skipped, SkippedEntry{Path: rel, Reason: "not a regular file"})
				continue
			}
			fi, err := e.Info()
			if err != nil {
				logger.Warn("skipping unreadable file", "path", rel, "error", err)
				snap.Skipped = append(snap.Skipped, SkippedEntry{Path: rel, Reason: err.Error()})
				continue
			}
			snap.Files = append(snap.Files, rel)
			snap.Sizes[rel] = fi.Size()
		}
	}

	sort.Strings(snap.Files)
	sort.Slice(snap.Skipped, func(i, j int) bool { return snap.Skipped[i].Path < snap.Skipped[j].Path })

	classify(snap, opts)
	snap.detectRootFiles(logger)

	logger.Debug("facts extracted",
		"files", len(snap.Files),
		"sources", len(snap.SourceFiles),
		"tests", len(snap.TestFiles),
		"readme", snap.HasReadme(),
		"license", snap.HasLicense(),
		"ci", snap.HasCI(),
		"languages", snap.Languages(),
	)
	return snap, nil
}

// readDir is os.ReadDir; tests replace it to simulate partial reads.
var readDir = os.ReadDir

func classify(snap *Snapshot, opts Options) {
	for _, f := range snap.Files {
		if opts.SourceGlobs.Matches(f) {
			snap.SourceFiles = append(snap.SourceFiles, f)
		}
		if opts.TestGlobs.Matches(f) {
			snap.TestFiles = append(snap.TestFiles, f)
		}
		if _, ok := binaryExtensions[strings.ToLower(path.Ext(f))]; ok {
			snap.BinaryFiles = append(snap.BinaryFiles, f)
		}
		if isWorkflowFile(f) || isCIConfigFile(f) {
			snap.CIFiles = append(snap.CIFiles, f)
		}
	}

	langs := make([]string, 0, len(languageMarkers))
	for lang := range languageMarkers {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		for _, marker := range languageMarkers[lang] {
			if strings.Contains(marker, "*") {
				for _, f := range snap.Files {
					if ok, _ := glob.Match(marker, f); ok {
						snap.LanguageMarkers[lang] = append(snap.LanguageMarkers[lang], f)
					}
				}
				continue
			}
			if _, ok := snap.Sizes[marker]; ok {
				snap.LanguageMarkers[lang] = append(snap.LanguageMarkers[lang], marker)
			}
		}
	}
}

func (snap *Snapshot) detectRootFiles(logger *slog.Logger) {
	for _, name := range readmeNames {
		if _, ok := snap.Sizes[name]; !ok {
			continue
		}
		snap.ReadmePath = name
		content, err := os.ReadFile(filepath.Join(snap.Root, name))
		if err != nil {
			logger.Warn("failed to read README", "path", name, "error", err)
			break
		}
		snap.ReadmeContent = string(content)
		snap.ReadmeHeadings = parseHeadings(snap.ReadmeContent)
		break
	}

	for _, name := range licenseNames {
		if _, ok := snap.Sizes[name]; !ok {
			continue
		}
		snap.LicensePath = name
		content, err := os.ReadFile(filepath.Join(snap.Root, name))
		if err != nil {
			logger.Warn("failed to read LICENSE", "path", name, "error", err)
			break
		}
		snap.LicenseContent = string(content)
		break
	}

	_, snap.HasGitignore = snap.Sizes[".gitignore"]

	for _, f := range snap.CIFiles {
		content, err := os.ReadFile(filepath.Join(snap.Root, filepath.FromSlash(f)))
		if err != nil {
			logger.Warn("failed to read CI config", "path", f, "error", err)
			continue
		}
		snap.WorkflowContents[f] = string(content)
	}
}

// parseHeadings returns Markdown ATX and setext headings in document order.
func parseHeadings(content string) []string {
	var headings []string
	var prev string
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimLeft(line, " ")
		switch {
		case strings.HasPrefix(trimmed, "#"):
			text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			text = strings.TrimSpace(strings.TrimRight(text, "#"))
			if text != "" {
				headings = append(headings, text)
			}
		case prev != "" && !strings.HasPrefix(strings.TrimLeft(prev, " "), "#") && isSetextUnderline(trimmed):
			headings = append(headings, strings.TrimSpace(prev))
		}
		prev = line
	}
	return headings
}

func isSetextUnderline(s string) bool {
	if len(s) < 2 {
		return false
	}
	return strings.Trim(s, "=") == "" || strings.Trim(s, "-") == ""
}

func isWorkflowFile(p string) bool {
	if path.Dir(p) != ".github/workflows" {
		return false
	}
	ext := path.Ext(p)
	return ext == ".yml" || ext == ".yaml"
}

func isCIConfigFile(p string) bool {
	for _, c := range ciConfigFiles {
		if p == c {
			return true
		}
	}
	return false
}

func displayPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}

func copyTags(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
