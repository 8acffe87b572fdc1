package domain

// KnowledgeRecord describes an animal the rule catalog can resolve.
type KnowledgeRecord struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Features    []string `json:"features"`
	Appearance  []string `json:"appearance"`
	Behaviors   []string `json:"behaviors"`
}

// IsZero reports whether the record is the empty "no information" record.
func (k KnowledgeRecord) IsZero() bool {
	return k.Name == "" && k.Category == "" && k.Subcategory == "" &&
		len(k.Features) == 0 && len(k.Appearance) == 0 && len(k.Behaviors) == 0
}

// Clone returns a deep copy of the record.
func (k KnowledgeRecord) Clone() KnowledgeRecord {
	cp := k
	cp.Features = append([]string(nil), k.Features...)
	cp.Appearance = append([]string(nil), k.Appearance...)
	cp.Behaviors = append([]string(nil), k.Behaviors...)
	return cp
}
