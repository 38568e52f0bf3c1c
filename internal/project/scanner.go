// Package project builds a depth-bounded tree of the monitored workspace.
package project

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// MaxDepth bounds recursion into the workspace tree.
const MaxDepth = 5

// ignoredDirs are heavy or VCS directories excluded from the tree.
var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".vscode":      true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"out":          true,
}

// Scanner walks a workspace root into a telemetry.ProjectNode tree.
type Scanner struct {
	root string
}

// NewScanner creates a scanner for the given workspace root.
// An empty root means no workspace is open; Scan then returns nil.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Scan returns the workspace tree, or nil when no workspace is open or the
// root is unreadable. Absence is a first-class value, not an error.
func (s *Scanner) Scan() *telemetry.ProjectNode {
	if s.root == "" {
		return nil
	}
	node, err := walk(s.root, filepath.Base(s.root), 0)
	if err != nil {
		return nil
	}
	return node
}

func walk(path, name string, depth int) (*telemetry.ProjectNode, error) {
	if depth > MaxDepth {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return &telemetry.ProjectNode{Name: name, Type: telemetry.NodeFile}, nil
	}

	node := &telemetry.ProjectNode{
		Name:     name,
		Type:     telemetry.NodeFolder,
		Children: []*telemetry.ProjectNode{},
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		// Unreadable directory: return the folder with no children.
		return node, nil
	}

	for _, entry := range entries {
		if ignoredDirs[entry.Name()] {
			continue
		}
		child, err := walk(filepath.Join(path, entry.Name()), entry.Name(), depth+1)
		if err != nil || child == nil {
			continue
		}
		node.Children = append(node.Children, child)
	}

	// Folders first, then files; alphabetical within each group.
	sort.Slice(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.Type != b.Type {
			return a.Type == telemetry.NodeFolder
		}
		return a.Name < b.Name
	})

	return node, nil
}
