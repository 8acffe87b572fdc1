package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"bestiary/pkg/domain"
)

//go:embed rules.yaml
var defaultRules []byte

type fileDocument struct {
	Rules []fileRule `yaml:"rules"`
}

type fileRule struct {
	ID          string           `yaml:"id"`
	Description string           `yaml:"description"`
	Conditions  []fileAssignment `yaml:"conditions"`
	Conclusion  []fileAssignment `yaml:"conclusion"`
}

type fileAssignment struct {
	Attribute string    `yaml:"attribute"`
	Value     yaml.Node `yaml:"value"`
}

// Default parses the embedded Animals-10 rule set.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultRules))
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied catalog path
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load decodes a YAML catalog. YAML booleans become bool values and
// strings become categories; any other scalar is a configuration error.
func Load(r io.Reader) (*Catalog, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	rules := make([]domain.Rule, 0, len(doc.Rules))
	for i, fr := range doc.Rules {
		conds, err := decodeAssignments(fr.Conditions)
		if err != nil {
			return nil, &RuleError{Index: i, RuleID: fr.ID, Err: fmt.Errorf("condition: %w", err)}
		}
		concl, err := decodeAssignments(fr.Conclusion)
		if err != nil {
			return nil, &RuleError{Index: i, RuleID: fr.ID, Err: fmt.Errorf("conclusion: %w", err)}
		}
		rules = append(rules, domain.Rule{
			ID:          fr.ID,
			Conditions:  conds,
			Conclusion:  concl,
			Description: fr.Description,
		})
	}
	return New(rules)
}

func decodeAssignments(in []fileAssignment) ([]domain.Assignment, error) {
	out := make([]domain.Assignment, 0, len(in))
	for _, fa := range in {
		v, err := decodeValue(&fa.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fa.Attribute, err)
		}
		out = append(out, domain.Assignment{Attribute: fa.Attribute, Value: v})
	}
	return out, nil
}

func decodeValue(n *yaml.Node) (domain.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return domain.Value{}, ErrInvalidValue
	}
	switch n.Tag {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return domain.Value{}, err
		}
		return domain.Bool(b), nil
	case "!!str":
		return domain.Category(n.Value), nil
	default:
		return domain.Value{}, fmt.Errorf("%w: got %s", ErrInvalidValue, n.Tag)
	}
}
