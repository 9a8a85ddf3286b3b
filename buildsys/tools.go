package buildsys

import (
	"os/exec"
	"strings"

	"github.com/cashapp/bootstrap/errors"
)

// ToolRequirement is an external tool a build needs.
type ToolRequirement struct {
	Name string
	// Alternatives that satisfy the requirement if Name is missing.
	Alternatives []string
	// Optional tools only produce a warning when missing.
	Optional bool
	Purpose  string
}

// MissingToolsError lists required tools that could not be found on the PATH.
type MissingToolsError struct {
	Tools []ToolRequirement
}

func (m *MissingToolsError) Error() string {
	names := []string{}
	for _, tool := range m.Tools {
		name := tool.Name
		if len(tool.Alternatives) > 0 {
			name += " (or " + strings.Join(tool.Alternatives, ", ") + ")"
		}
		if tool.Purpose != "" {
			name += " for " + tool.Purpose
		}
		names = append(names, name)
	}
	return "missing required tools: " + strings.Join(names, "; ")
}

// Found returns the first executable on the PATH satisfying the requirement.
func (t ToolRequirement) Found() (string, bool) {
	for _, name := range append([]string{t.Name}, t.Alternatives...) {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// CheckTools returns a *MissingToolsError naming every required tool that is not on the PATH,
// and the optional tools that are missing.
func CheckTools(tools []ToolRequirement) (missingOptional []ToolRequirement, err error) {
	missing := []ToolRequirement{}
	for _, tool := range tools {
		if _, ok := tool.Found(); ok {
			continue
		}
		if tool.Optional {
			missingOptional = append(missingOptional, tool)
		} else {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return missingOptional, errors.WithStack(&MissingToolsError{Tools: missing})
	}
	return missingOptional, nil
}

// AutotoolsRequirements are the tools needed to build a configure-based source tree.
func AutotoolsRequirements(bs BuildSystem) []ToolRequirement {
	return []ToolRequirement{
		{Name: bs.Tool(), Purpose: "compiling"},
		{Name: "patch", Optional: true, Purpose: "applying patches"},
		{Name: "ldconfig", Optional: true, Purpose: "refreshing the shared library cache"},
	}
}

// CMakeRequirements are the tools needed to build a CMake source tree.
func CMakeRequirements(bs BuildSystem) []ToolRequirement {
	return []ToolRequirement{
		{Name: "cmake", Purpose: "configuring"},
		{Name: bs.Tool(), Purpose: "compiling"},
		{Name: "patch", Optional: true, Purpose: "applying patches"},
	}
}
