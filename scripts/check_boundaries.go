package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "agora"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer of one context service may import. Allowed
// entries are relative to the service root unless they start with the module
// path. Standard library imports are always allowed.
type layerRule struct {
	allowed          []string
	noAdapters       bool
	noInfrastructure bool
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed:          []string{"domain"},
		noAdapters:       true,
		noInfrastructure: true,
	},
	"application": {
		allowed:          []string{"application", "domain", "ports", modulePath + "/contracts"},
		noAdapters:       true,
		noInfrastructure: true,
	},
	// Ports describe what the application needs in domain terms.
	"ports": {
		allowed: []string{"domain", "ports", modulePath + "/contracts"},
	},
}

// sourceFile is a non-test Go file below contexts/<context>/<service>/<layer>.
type sourceFile struct {
	path    string
	rel     string
	layer   string
	service string
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}
	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var found []violation
	for _, src := range listSources(root) {
		found = append(found, checkSource(src)...)
	}
	return found
}

func listSources(root string) []sourceFile {
	var sources []sourceFile
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(filepath.Dir(root), path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		segments := strings.SplitN(rel, "/", 5)
		if len(segments) < 5 || segments[0] != "contexts" {
			return nil
		}
		sources = append(sources, sourceFile{
			path:    path,
			rel:     rel,
			layer:   segments[3],
			service: modulePath + "/" + strings.Join(segments[:3], "/"),
		})
		return nil
	})
	return sources
}

func checkSource(src sourceFile) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, src.path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: src.rel, Line: 1, Rule: "file must parse"}}
	}

	rule, layered := layerRules[src.layer]
	var found []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		report := func(reason string) {
			found = append(found, violation{
				File:   src.rel,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		if strings.HasPrefix(importPath, modulePath+"/contexts/") && !hasPrefix(importPath, src.service) {
			report("cross-module imports are forbidden")
		}
		if !layered {
			continue
		}
		if rule.noAdapters && strings.Contains(importPath, "/adapters/") {
			report(src.layer + " must not import adapters")
		}
		if rule.noInfrastructure && isInfrastructure(importPath) {
			report(src.layer + " must not import runtime infrastructure")
		}
		if !isStdlib(importPath) && !rule.permits(src.service, importPath) {
			report(src.layer + " import is outside explicit allowlist")
		}
	}
	return found
}

func (r layerRule) permits(service string, importPath string) bool {
	for _, entry := range r.allowed {
		prefix := entry
		if !strings.HasPrefix(entry, modulePath+"/") {
			prefix = service + "/" + entry
		}
		if hasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func isInfrastructure(importPath string) bool {
	return hasPrefix(importPath, modulePath+"/internal") || hasPrefix(importPath, modulePath+"/cmd")
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isStdlib treats any import whose first element has no dot as standard
// library, except this module's own packages.
func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
