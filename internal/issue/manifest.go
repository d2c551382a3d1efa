package issue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFilename is the project manifest expected at the project root.
const ManifestFilename = "loops.toml"

// ErrNoManifest indicates no loops.toml was found in the project directory.
var ErrNoManifest = errors.New("loops.toml not found in project directory")

// Manifest is the project-level description of a backlog: the issue ID
// prefix, the lifecycle directories, and run defaults.
type Manifest struct {
	Project ProjectSection `toml:"project"`
	Run     RunSection     `toml:"run"`
}

// ProjectSection identifies the backlog layout.
type ProjectSection struct {
	// Prefix is the issue ID prefix, e.g. "BUG".
	Prefix string `toml:"prefix"`
	// BacklogDir holds issues awaiting processing.
	BacklogDir string `toml:"backlog_dir"`
	// InProgressDir holds issues currently being processed.
	InProgressDir string `toml:"in_progress_dir"`
	// CompletedDir holds resolved issues.
	CompletedDir string `toml:"completed_dir"`
}

// RunSection carries run defaults that belong to the project rather
// than the local machine (machine-level settings live in .ll.yaml).
type RunSection struct {
	// SeedPaths are auxiliary files or directories copied into every
	// sandbox before execution.
	SeedPaths []string `toml:"seed_paths"`
	// Command is the external issue-processing command. The token
	// {{issue}} is replaced with the absolute issue record path.
	Command string `toml:"command"`
}

// LoadManifest reads and parses loops.toml from dir, applying defaults
// for unset fields.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, dir)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.applyDefaults()

	if m.Project.Prefix == "" {
		return nil, fmt.Errorf("%s: project.prefix is required", path)
	}
	return &m, nil
}

// applyDefaults fills unset manifest fields with conventional values.
func (m *Manifest) applyDefaults() {
	if m.Project.BacklogDir == "" {
		m.Project.BacklogDir = filepath.Join("issues", "backlog")
	}
	if m.Project.InProgressDir == "" {
		m.Project.InProgressDir = filepath.Join("issues", "in-progress")
	}
	if m.Project.CompletedDir == "" {
		m.Project.CompletedDir = filepath.Join("issues", "completed")
	}
}
