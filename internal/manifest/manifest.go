// Package manifest detects a project's own module identifier from its
// build manifest, so imports that name the project itself can be mapped
// back to project paths.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
)

// Source names the manifest a module prefix was read from.
type Source string

const (
	SourceNone      Source = ""
	SourceGoMod     Source = "go.mod"
	SourcePyproject Source = "pyproject.toml"
	SourceCargo     Source = "Cargo.toml"
	SourcePackage   Source = "package.json"
)

// probes are tried in order; the first one that yields a name wins.
var probes = []struct {
	source Source
	read   func(path string) string
}{
	{SourceGoMod, readGoMod},
	{SourcePyproject, readPyproject},
	{SourceCargo, readCargo},
	{SourcePackage, readPackageJSON},
}

// DetectModulePrefix returns the module identifier declared by the first
// manifest found in root, and which manifest declared it. Without one the
// prefix is empty and the module-prefix strategy stays disabled.
func DetectModulePrefix(root string) (string, Source) {
	for _, p := range probes {
		if name := p.read(filepath.Join(root, string(p.source))); name != "" {
			return name, p.source
		}
	}
	return "", SourceNone
}

func readGoMod(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

type pyprojectDoc struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// readPyproject returns the importable package name: distribution names
// use '-' where the package uses '_'.
func readPyproject(path string) string {
	var doc pyprojectDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return ""
	}
	name := doc.Project.Name
	if name == "" {
		name = doc.Tool.Poetry.Name
	}
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}

type cargoDoc struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

func readCargo(path string) string {
	var doc cargoDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return ""
	}
	return strings.ReplaceAll(strings.TrimSpace(doc.Package.Name), "-", "_")
}

func readPackageJSON(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var doc struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Name)
}
