package detect

import (
	"path"
	"strings"
)

// ManifestWeight is the minimum byte weight given to a manifest file, so a
// repository holding only a package.json still detects as javascript.
const ManifestWeight = 1 << 10

var extensions = map[string]string{
	".py":      "python",
	".pyi":     "python",
	".js":      "javascript",
	".jsx":     "javascript",
	".mjs":     "javascript",
	".cjs":     "javascript",
	".ts":      "javascript",
	".tsx":     "javascript",
	".java":    "java",
	".kt":      "java",
	".kts":     "java",
	".groovy":  "java",
	".scala":   "java",
	".rb":      "ruby",
	".rake":    "ruby",
	".gemspec": "ruby",
	".rs":      "rust",
	".go":      "go",
	".php":     "php",
	".cs":      "csharp",
	".swift":   "swift",
	".c":       "c",
	".h":       "c",
	".cc":      "cpp",
	".cpp":     "cpp",
	".hpp":     "cpp",
	".ex":      "elixir",
	".exs":     "elixir",
}

var manifests = map[string]string{
	"package.json":      "javascript",
	"package-lock.json": "javascript",
	"pnpm-lock.yaml":    "javascript",
	"yarn.lock":         "javascript",
	"pyproject.toml":    "python",
	"setup.py":          "python",
	"setup.cfg":         "python",
	"pipfile":           "python",
	"pipfile.lock":      "python",
	"poetry.lock":       "python",
	"pom.xml":           "java",
	"build.gradle":      "java",
	"build.gradle.kts":  "java",
	"settings.gradle":   "java",
	"gemfile":           "ruby",
	"gemfile.lock":      "ruby",
	"cargo.toml":        "rust",
	"cargo.lock":        "rust",
	"go.mod":            "go",
	"go.sum":            "go",
	"composer.json":     "php",
	"composer.lock":     "php",
	"mix.exs":           "elixir",
}

var interpreters = map[string]string{
	"python":  "python",
	"python3": "python",
	"node":    "javascript",
	"ruby":    "ruby",
	"php":     "php",
}

// skipDirs are never descended into by the fallback walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"build":        true,
	"dist":         true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
}

// classifyName maps a slash-separated file path to a language using its
// name alone. The second result reports whether the file is a manifest.
func classifyName(p string) (lang string, manifest bool) {
	base := strings.ToLower(path.Base(p))
	if l, ok := manifests[base]; ok {
		return l, true
	}
	if strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt") {
		return "python", true
	}
	return extensions[path.Ext(base)], false
}

// classifyShebang inspects the first line of an extension-less file.
func classifyShebang(line string) string {
	if !strings.HasPrefix(line, "#!") {
		return ""
	}
	fields := strings.Fields(line[2:])
	if len(fields) == 0 {
		return ""
	}
	interp := path.Base(fields[0])
	if interp == "env" {
		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "-") {
				interp = f
				break
			}
		}
	}
	if l, ok := interpreters[interp]; ok {
		return l
	}
	// python3.11, ruby2.7
	for name, l := range interpreters {
		if strings.HasPrefix(interp, name) && strings.Trim(interp[len(name):], "0123456789.") == "" {
			return l
		}
	}
	return ""
}
