package output

import (
	"sort"
	"time"

	"repopolicy/internal/integration"
	"repopolicy/internal/report"
	"repopolicy/internal/rules"
)

// DocumentVersion is the schema version of policy-report.json.
const DocumentVersion = "1.0"

// Metadata describes the run that produced a Document.
type Metadata struct {
	RepoPath                 string `json:"repo_path"`
	ConfigFile               string `json:"config_file,omitempty"`
	ConfigHash               string `json:"config_hash,omitempty"`
	CommitHash               string `json:"commit_hash,omitempty"`
	ToolVersion              string `json:"tool_version,omitempty"`
	AnalyzerVersion          string `json:"analyzer_version,omitempty"`
	LicenseHeaderToolVersion string `json:"license_header_tool_version,omitempty"`

	// Command re-runs the same check, output flags excluded.
	Command string `json:"command,omitempty"`
}

// Artifact is the per-integration section of a Document.
type Artifact struct {
	Status       string   `json:"status"`
	Version      string   `json:"version,omitempty"`
	OutputFiles  []string `json:"output_files,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// Document is the complete, final record of a run. Sinks that need the whole
// run (report files) receive it once, after run.finished.
type Document struct {
	Version     string              `json:"version"`
	GeneratedAt time.Time           `json:"generated_at"`
	Metadata    Metadata            `json:"metadata"`
	Summary     report.Summary      `json:"summary"`
	Passed      bool                `json:"passed"`
	Rules       []rules.Result      `json:"rules"`
	Artifacts   map[string]Artifact `json:"artifacts"`
}

func NewDocument(rep *report.Report, meta Metadata, now time.Time, outcomes ...*integration.Outcome) *Document {
	doc := &Document{
		Version:     DocumentVersion,
		GeneratedAt: now.UTC(),
		Metadata:    meta,
		Summary:     rep.Summary(),
		Passed:      rep.Passed(),
		Rules:       rep.Results(),
		Artifacts:   make(map[string]Artifact),
	}
	if doc.Rules == nil {
		doc.Rules = []rules.Result{}
	}
	for _, o := range outcomes {
		if o == nil || o.Tool == "" {
			continue
		}
		doc.Artifacts[o.Tool] = artifactFrom(o)
	}
	return doc
}

func artifactFrom(o *integration.Outcome) Artifact {
	a := Artifact{Version: o.ToolVersion, OutputFiles: o.Artifacts()}
	switch {
	case o.Skipped:
		a.Status = "skipped"
		a.ErrorMessage = o.SkipReason
	case o.Success:
		a.Status = "success"
	default:
		a.Status = "failed"
		a.ErrorMessage = o.ErrorMessage
	}
	sort.Strings(a.OutputFiles)
	return a
}
