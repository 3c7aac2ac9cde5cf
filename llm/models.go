package llm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultModelChain returns the built-in fallback chain: newest and fastest
// first, progressively older and slower, ending in the maximally compatible
// legacy identifier.
func DefaultModelChain() []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-pro",
	}
}

// modelChainFile is the YAML shape of an external chain override:
//
//	models:
//	  - gemini-2.0-flash
//	  - gemini-1.5-pro
type modelChainFile struct {
	Models []string `yaml:"models"`
}

// LoadModelChain reads a fallback chain from a YAML file. The file must list
// at least one model.
func LoadModelChain(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file %s: %w", path, err)
	}

	var file modelChainFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file %s: %w", path, err)
	}

	if len(file.Models) == 0 {
		return nil, fmt.Errorf("models file %s lists no models", path)
	}
	for i, m := range file.Models {
		if m == "" {
			return nil, fmt.Errorf("models file %s has an empty model at index %d", path, i)
		}
	}

	return file.Models, nil
}
