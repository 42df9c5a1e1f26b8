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

const modulePath = "plenary"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRules lists, per layer directory of a context service, the in-module
// prefixes (relative to the service) a non-test file may import. Third-party
// imports are allowed only where thirdParty is set.
var layerRules = map[string]struct {
	allowed    []string
	thirdParty bool
}{
	"domain":      {allowed: []string{"domain"}},
	"ports":       {allowed: []string{"domain"}},
	"application": {allowed: []string{"application", "domain", "ports"}},
	"transport":   {allowed: []string{"transport"}},
	"adapters":    {allowed: []string{"adapters", "application", "domain", "ports", "transport"}, thirdParty: true},
}

func main() {
	root := "contexts"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	violations, err := collectViolations(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "walk %s: %v\n", root, err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks root, which must be the contexts directory, and
// checks every non-test Go file laid out as <context>/<service>/<layer>/...
func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[0], parts[1])
		layer := ""
		if len(parts) > 3 {
			layer = parts[2]
		}
		violations = append(violations, validateFile(path, filepath.ToSlash(rel), layer, servicePrefix)...)
		return nil
	})
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations, err
}

func validateFile(path string, displayPath string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: displayPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		add := func(rule string) {
			violations = append(violations, violation{File: displayPath, Line: line, Import: importPath, Rule: rule})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			add("cross-service imports are forbidden")
			continue
		}
		rules, ok := layerRules[layer]
		if !ok {
			continue
		}
		switch {
		case isStdlib(importPath):
		case hasPrefix(importPath, modulePath+"/internal"):
			add(layer + " must not import platform infrastructure")
		case hasPrefix(importPath, servicePrefix):
			allowed := false
			for _, dir := range rules.allowed {
				if hasPrefix(importPath, servicePrefix+"/"+dir) {
					allowed = true
					break
				}
			}
			if !allowed {
				add(layer + " import is outside its allowlist")
			}
		case !rules.thirdParty:
			add(layer + " must not import third-party packages")
		}
	}
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
