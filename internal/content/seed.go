package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the fallback dataset used when the store cannot be read.
type Seed struct {
	Projects []Project       `yaml:"projects"`
	Logs     []LogEntry      `yaml:"logs"`
	Skills   []SkillCategory `yaml:"skills"`
}

// DefaultSeed parses the embedded dataset.
func DefaultSeed() (Seed, error) {
	return parseSeed(defaultSeed)
}

// LoadSeed reads a seed file, or the embedded dataset when path is empty.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	for i := range seed.Projects {
		seed.Projects[i] = seed.Projects[i].normalize()
	}
	for i := range seed.Skills {
		seed.Skills[i] = seed.Skills[i].normalize()
	}
	return seed, nil
}

// state returns a fresh copy so edits never reach the seed itself.
func (s Seed) state() State {
	return State{
		Projects: cloneProjects(s.Projects),
		Logs:     cloneLogs(s.Logs),
		Skills:   cloneSkills(s.Skills),
	}
}
