package mcp

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var contentFS embed.FS

// SearchTips are attached to search responses.
type SearchTips struct {
	NoResults   []string `yaml:"no_results" json:"no_results"`
	WithResults []string `yaml:"with_results" json:"with_results"`
	FTS5Syntax  []string `yaml:"fts5_syntax" json:"fts5_syntax"`
}

// Content is the static guidance served by the about, create_recipe_howto
// and search tools.
type Content struct {
	About      map[string]any
	Howto      map[string]any
	SearchTips SearchTips
}

// LoadContent parses the embedded guidance files.
func LoadContent() (*Content, error) {
	c := &Content{}
	if err := loadYAML("content/about.yaml", &c.About); err != nil {
		return nil, err
	}
	if err := loadYAML("content/create_recipe_howto.yaml", &c.Howto); err != nil {
		return nil, err
	}
	if err := loadYAML("content/search_tips.yaml", &c.SearchTips); err != nil {
		return nil, err
	}
	return c, nil
}

func loadYAML(name string, out any) error {
	data, err := contentFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}
