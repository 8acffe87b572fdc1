// Package knowledge is the read-only descriptive record set for animals the
// rule catalog can name.
package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"bestiary/pkg/domain"
)

//go:embed animals.yaml
var defaultAnimals []byte

// Load errors.
var (
	ErrEmptyName     = errors.New("animal name is empty")
	ErrDuplicateName = errors.New("duplicate animal name")
)

// Base is immutable and safe for concurrent use.
type Base struct {
	names   []string
	records map[string]domain.KnowledgeRecord
}

// New indexes records by name, keeping declaration order for Names.
func New(records []domain.KnowledgeRecord) (*Base, error) {
	b := &Base{
		names:   make([]string, 0, len(records)),
		records: make(map[string]domain.KnowledgeRecord, len(records)),
	}
	for i, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("animal #%d: %w", i, ErrEmptyName)
		}
		if _, dup := b.records[r.Name]; dup {
			return nil, fmt.Errorf("animal %s: %w", r.Name, ErrDuplicateName)
		}
		b.names = append(b.names, r.Name)
		b.records[r.Name] = r.Clone()
	}
	return b, nil
}

// Lookup returns the record for name, or the empty record when name is
// unknown. "unclassified" is never a known name.
func (b *Base) Lookup(name string) domain.KnowledgeRecord {
	rec, _ := b.Find(name)
	return rec
}

// Find is Lookup with a presence flag.
func (b *Base) Find(name string) (domain.KnowledgeRecord, bool) {
	rec, ok := b.records[name]
	if !ok {
		return domain.KnowledgeRecord{}, false
	}
	return rec.Clone(), true
}

// Names lists known animals in declaration order.
func (b *Base) Names() []string {
	return append([]string(nil), b.names...)
}

// Len returns the number of records.
func (b *Base) Len() int { return len(b.names) }

type fileDocument struct {
	Animals []fileAnimal `yaml:"animals"`
}

type fileAnimal struct {
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Subcategory string   `yaml:"subcategory"`
	Features    []string `yaml:"features"`
	Appearance  []string `yaml:"appearance"`
	Behaviors   []string `yaml:"behaviors"`
}

// Default parses the embedded Animals-10 records.
func Default() (*Base, error) {
	return Load(bytes.NewReader(defaultAnimals))
}

// LoadFile reads a YAML knowledge base from disk.
func LoadFile(path string) (*Base, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied knowledge path
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load decodes a YAML knowledge base.
func Load(r io.Reader) (*Base, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	records := make([]domain.KnowledgeRecord, 0, len(doc.Animals))
	for _, a := range doc.Animals {
		records = append(records, domain.KnowledgeRecord{
			Name:        a.Name,
			Category:    a.Category,
			Subcategory: a.Subcategory,
			Features:    a.Features,
			Appearance:  a.Appearance,
			Behaviors:   a.Behaviors,
		})
	}
	return New(records)
}
