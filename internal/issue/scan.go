package issue

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML header of an issue record.
type frontmatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	DependsOn []string `yaml:"depends_on"`
	Files     []string `yaml:"files"`
}

// ScanDir reads every markdown issue record in dir and returns the
// parsed issues sorted by ID. Records that do not carry a well-formed
// identifier (in frontmatter or filename) are reported as errors, not
// silently skipped.
func ScanDir(dir string) ([]Issue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backlog dir %s: %w", dir, err)
	}

	var issues []Issue
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		is, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *is)
	}
	SortByID(issues)
	return issues, nil
}

// ParseFile reads a single issue record. The record is markdown with
// optional YAML frontmatter declaring id, title, depends_on and files.
// A missing frontmatter id falls back to the filename's leading token.
// File hints combine declared paths with paths inferred from the body.
func ParseFile(path string) (*Issue, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading issue record %s: %w", path, err)
	}

	fm, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	id := fm.ID
	if id == "" {
		id = IDFromFilename(abs)
	}
	if !ValidID(id) {
		return nil, fmt.Errorf("%s: no well-formed issue ID in frontmatter or filename", path)
	}

	title := fm.Title
	if title == "" {
		title = firstHeading(body)
	}

	files := mergeFileHints(fm.Files, inferPaths(body))

	return &Issue{
		ID:        id,
		Path:      abs,
		Title:     title,
		DependsOn: fm.DependsOn,
		Files:     files,
	}, nil
}

// splitFrontmatter separates a leading YAML frontmatter block (between
// two "---" lines) from the markdown body. A record without
// frontmatter yields a zero frontmatter and the full content as body.
func splitFrontmatter(content string) (frontmatter, string, error) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---\n") && content != "---" {
		return fm, content, nil
	}
	rest := strings.TrimPrefix(content, "---\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, "", fmt.Errorf("unterminated frontmatter block")
	}
	header := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return fm, body, nil
}

// firstHeading returns the text of the first markdown heading in body,
// or the first non-empty line if no heading exists.
func firstHeading(body string) string {
	var fallback string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
		if fallback == "" {
			fallback = trimmed
		}
	}
	return fallback
}

// inferPaths extracts path-looking tokens from backtick spans in the
// body. A token qualifies when it contains a path separator or a file
// extension and no whitespace. Inference is a hint source only; it
// trades recall for precision and never causes a hard failure.
func inferPaths(body string) []string {
	var paths []string
	for _, span := range backtickSpans(body) {
		if looksLikePath(span) {
			paths = append(paths, span)
		}
	}
	return paths
}

// backtickSpans returns the contents of every single-backtick span.
func backtickSpans(s string) []string {
	var spans []string
	for {
		start := strings.IndexByte(s, '`')
		if start < 0 {
			break
		}
		s = s[start+1:]
		end := strings.IndexByte(s, '`')
		if end < 0 {
			break
		}
		spans = append(spans, s[:end])
		s = s[end+1:]
	}
	return spans
}

// looksLikePath reports whether a backtick span plausibly names a file.
func looksLikePath(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	if strings.Contains(s, "/") {
		return true
	}
	// A bare filename needs an extension: "main.py" yes, "main" no.
	dot := strings.LastIndexByte(s, '.')
	return dot > 0 && dot < len(s)-1
}

// mergeFileHints combines declared and inferred hints, deduplicated
// and sorted. Declared hints are kept verbatim (they may be globs).
func mergeFileHints(declared, inferred []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, h := range append(append([]string{}, declared...), inferred...) {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		merged = append(merged, h)
	}
	sort.Strings(merged)
	return merged
}
