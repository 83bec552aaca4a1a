package model

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MaxClassID bounds the ids accepted in an index->name mapping.
const MaxClassID = 100000

// dataset is the subset of a training dataset descriptor we care about.
// names may be a sequence or an index->name mapping.
type dataset struct {
	Names yaml.Node `yaml:"names"`
}

// LoadLabels reads class names from a dataset descriptor.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ParseLabels(data)
}

// ParseLabels decodes the names entry of a dataset descriptor.
func ParseLabels(data []byte) ([]string, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	switch ds.Names.Kind {
	case 0:
		return nil, fmt.Errorf("dataset has no names")

	case yaml.SequenceNode:
		var names []string
		if err := ds.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode names: %w", err)
		}
		return names, nil

	case yaml.MappingNode:
		var byIndex map[int]string
		if err := ds.Names.Decode(&byIndex); err != nil {
			return nil, fmt.Errorf("decode names: %w", err)
		}
		ids := make([]int, 0, len(byIndex))
		for id := range byIndex {
			if id < 0 {
				return nil, fmt.Errorf("negative class id %d", id)
			}
			if id > MaxClassID {
				return nil, fmt.Errorf("class id %d exceeds %d", id, MaxClassID)
			}
			ids = append(ids, id)
		}
		sort.Ints(ids)
		if len(ids) == 0 {
			return nil, nil
		}
		names := make([]string, ids[len(ids)-1]+1)
		for _, id := range ids {
			names[id] = byIndex[id]
		}
		return names, nil

	default:
		return nil, fmt.Errorf("unsupported names layout")
	}
}
