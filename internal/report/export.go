package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Deliverable file names in the result directory
const (
	CollisionFile = "collision_seed.yml"
	OtherFile     = "other_seed.yml"
	InitialFile   = "init_seed.yml"
)

// Export writes the campaign deliverables into dir. Each file is a mapping
// from round id to seed, in the order the seeds are given.
func Export(dir string, population []*models.Seed, findings *checkpoint.Findings) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}
	if findings == nil {
		findings = &checkpoint.Findings{}
	}

	files := []struct {
		name  string
		seeds []*models.Seed
	}{
		{CollisionFile, findings.Collision},
		{OtherFile, findings.Other},
		{InitialFile, population},
	}
	for _, f := range files {
		if err := WriteSeeds(filepath.Join(dir, f.name), f.seeds); err != nil {
			return err
		}
	}
	return nil
}

// WriteSeeds atomically writes seeds as a round-id keyed YAML mapping
func WriteSeeds(path string, seeds []*models.Seed) error {
	doc, err := seedMapping(seeds)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := checkpoint.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadSeeds loads a file written by WriteSeeds, keeping its order
func ReadSeeds(path string) ([]*models.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: expected a mapping", filepath.Base(path))
	}

	seeds := make([]*models.Seed, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		id, err := strconv.Atoi(m.Content[i].Value)
		if err != nil {
			return nil, fmt.Errorf("parse %s: bad round id %q", filepath.Base(path), m.Content[i].Value)
		}
		var seed models.Seed
		if err := m.Content[i+1].Decode(&seed); err != nil {
			return nil, fmt.Errorf("parse %s: round %d: %w", filepath.Base(path), id, err)
		}
		if seed.RoundID != id {
			return nil, fmt.Errorf("parse %s: seed keyed %d has round id %d", filepath.Base(path), id, seed.RoundID)
		}
		seeds = append(seeds, &seed)
	}
	return seeds, nil
}

func seedMapping(seeds []*models.Seed) (*yaml.Node, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, s := range seeds {
		var value yaml.Node
		if err := value.Encode(s); err != nil {
			return nil, fmt.Errorf("round %d: %w", s.RoundID, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(s.RoundID)}
		doc.Content = append(doc.Content, key, &value)
	}
	return doc, nil
}
