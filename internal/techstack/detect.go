// Package techstack detects the technologies used in a workspace from
// manifest files, well-known config files and a file-extension census.
package techstack

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// cacheTTL avoids re-walking the workspace on every sampling tick.
const cacheTTL = time.Minute

// censusDepth bounds the extension census walk.
const censusDepth = 4

var censusIgnored = map[string]bool{
	"node_modules": true,
	".git":         true,
	"venv":         true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	".next":        true,
}

var gitUserPattern = regexp.MustCompile(`name = (.*)`)

// Detector scans a workspace root for its tech stack. Results are cached
// for cacheTTL.
type Detector struct {
	root string
	now  func() time.Time

	mu       sync.Mutex
	cache    *telemetry.TechStack
	cachedAt time.Time
}

// Option configures the detector.
type Option func(*Detector)

// WithClock injects a clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a detector for the given workspace root.
func NewDetector(root string, opts ...Option) *Detector {
	d := &Detector{root: root, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Scan returns the detected stack, or nil when no workspace is open.
func (d *Detector) Scan() *telemetry.TechStack {
	if d.root == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cache != nil && d.now().Sub(d.cachedAt) < cacheTTL {
		return d.cache
	}

	result := &telemetry.TechStack{
		Categories: map[string][]string{
			"frontend": {},
			"backend":  {},
			"database": {},
			"devops":   {},
		},
		Meta: telemetry.TechMeta{Author: "Unknown", Created: "Unknown"},
	}

	d.scanPackageJSON(result)
	d.scanPythonManifests(result)
	d.scanConfigFiles(result)

	counts := make(map[string]int)
	census(d.root, counts, 0)
	inferFromExtensions(counts, result)

	d.scanGit(result)

	if info, err := os.Stat(d.root); err == nil {
		result.Meta.Created = info.ModTime().UTC().Format("2006-01-02")
	}

	for group, tags := range result.Categories {
		result.Categories[group] = dedupe(tags)
	}

	d.cache = result
	d.cachedAt = d.now()
	return result
}

// packageJSON is the subset of package.json we care about.
type packageJSON struct {
	Author          json.RawMessage   `json:"author"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (d *Detector) scanPackageJSON(result *telemetry.TechStack) {
	data, err := os.ReadFile(filepath.Join(d.root, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}

	if len(pkg.Author) > 0 {
		var name string
		if err := json.Unmarshal(pkg.Author, &name); err == nil {
			result.Meta.Author = name
		} else {
			var obj struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(pkg.Author, &obj); err == nil && obj.Name != "" {
				result.Meta.Author = obj.Name
			}
		}
	}

	deps := make(map[string]bool, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for name := range pkg.Dependencies {
		deps[name] = true
	}
	for name := range pkg.DevDependencies {
		deps[name] = true
	}

	add := func(group, tag string, present bool) {
		if present {
			result.Categories[group] = append(result.Categories[group], tag)
		}
	}

	add("frontend", "React", deps["react"])
	add("frontend", "Vue", deps["vue"])
	add("frontend", "Svelte", deps["svelte"])
	add("frontend", "Angular", deps["angular"])
	add("frontend", "Tailwind CSS", deps["tailwindcss"])
	add("frontend", "Bootstrap", deps["bootstrap"])
	add("frontend", "Three.js", deps["three"])
	add("frontend", "Sass", deps["sass"] || deps["node-sass"])
	add("backend", "Express.js", deps["express"])
	add("backend", "NestJS", deps["nestjs"])
	add("backend", "Socket.io", deps["socket.io"])
	add("backend", "GraphQL", deps["graphql"])
	add("database", "MongoDB", deps["mongoose"] || deps["mongodb"])
	add("database", "PostgreSQL", deps["pg"])
	add("database", "MySQL", deps["mysql"] || deps["mysql2"])
	add("database", "Firebase", deps["firebase"])
	add("database", "Supabase", deps["supabase"])
	add("database", "Prisma", deps["prisma"])
}

func (d *Detector) scanPythonManifests(result *telemetry.TechStack) {
	for _, manifest := range []string{"requirements.txt", "Pipfile"} {
		data, err := os.ReadFile(filepath.Join(d.root, manifest))
		if err != nil {
			continue
		}
		content := strings.ToLower(string(data))
		if strings.Contains(content, "django") {
			result.Categories["backend"] = append(result.Categories["backend"], "Django")
		}
		if strings.Contains(content, "flask") {
			result.Categories["backend"] = append(result.Categories["backend"], "Flask")
		}
		if strings.Contains(content, "fastapi") {
			result.Categories["backend"] = append(result.Categories["backend"], "FastAPI")
		}
		if strings.Contains(content, "sqlalchemy") {
			result.Categories["database"] = append(result.Categories["database"], "SQLAlchemy")
		}
		if strings.Contains(content, "psycopg2") {
			result.Categories["database"] = append(result.Categories["database"], "PostgreSQL")
		}
		if strings.Contains(content, "pymongo") {
			result.Categories["database"] = append(result.Categories["database"], "MongoDB")
		}
	}
}

func (d *Detector) scanConfigFiles(result *telemetry.TechStack) {
	checks := []struct {
		file  string
		group string
		tag   string
	}{
		{"next.config.js", "frontend", "Next.js"},
		{"vite.config.js", "frontend", "Vite"},
		{"tailwind.config.js", "frontend", "Tailwind CSS"},
		{"docker-compose.yml", "devops", "Docker"},
		{"Dockerfile", "devops", "Docker"},
		{"firebase.json", "backend", "Firebase"},
		{"go.mod", "backend", "Go"},
	}
	for _, check := range checks {
		if _, err := os.Stat(filepath.Join(d.root, check.file)); err == nil {
			result.Categories[check.group] = append(result.Categories[check.group], check.tag)
		}
	}
}

func (d *Detector) scanGit(result *telemetry.TechStack) {
	gitDir := filepath.Join(d.root, ".git")
	if _, err := os.Stat(gitDir); err != nil {
		return
	}
	result.Meta.Git = true

	if result.Meta.Author != "Unknown" {
		return
	}
	data, err := os.ReadFile(filepath.Join(gitDir, "config"))
	if err != nil {
		return
	}
	if m := gitUserPattern.FindStringSubmatch(string(data)); m != nil {
		result.Meta.Author = strings.TrimSpace(m[1])
	}
}

// census counts file extensions under path, skipping heavy directories.
func census(path string, counts map[string]int, depth int) {
	if depth > censusDepth {
		return
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if censusIgnored[entry.Name()] {
				continue
			}
			census(filepath.Join(path, entry.Name()), counts, depth+1)
			continue
		}
		if ext := strings.ToLower(filepath.Ext(entry.Name())); ext != "" {
			counts[ext]++
		}
	}
}

func inferFromExtensions(counts map[string]int, result *telemetry.TechStack) {
	add := func(group, tag string, exts ...string) {
		for _, ext := range exts {
			if counts[ext] > 0 {
				result.Categories[group] = append(result.Categories[group], tag)
				return
			}
		}
	}

	add("frontend", "HTML", ".html")
	add("frontend", "CSS", ".css")
	add("frontend", "Sass", ".scss", ".sass")
	add("frontend", "React", ".jsx", ".tsx")
	add("frontend", "Vue", ".vue")
	add("frontend", "JavaScript", ".js", ".ts")
	add("backend", "Python", ".py")
	add("backend", "PHP", ".php")
	add("backend", "Ruby", ".rb")
	add("backend", "Java", ".java")
	add("backend", "Go", ".go")
	add("backend", "C#", ".cs")
	add("backend", "Rust", ".rs")
	add("database", "SQL", ".sql")
	add("database", "SQLite", ".sqlite", ".sqlite3")
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
