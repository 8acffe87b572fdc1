package domain

// Designated attributes read from the final fact snapshot.
const (
	AttrName        = "动物名称"
	AttrCategory    = "大类"
	AttrSubcategory = "亚类"
)

// Unclassified is reported as the classification name when no rule asserted AttrName.
const Unclassified = "unclassified"

// Assignment pairs an attribute with a value. Conditions use it as an
// expected value; conclusions use it as a fact to assert.
type Assignment struct {
	Attribute string `json:"attribute"`
	Value     Value  `json:"value"`
}

// Rule is a named conjunctive condition set with a batch conclusion.
type Rule struct {
	ID          string       `json:"id"`
	Conditions  []Assignment `json:"conditions"`
	Conclusion  []Assignment `json:"conclusion"`
	Description string       `json:"description"`
}

// ConditionAttributes returns the condition attribute names in declaration order.
func (r Rule) ConditionAttributes() []string {
	out := make([]string, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		out = append(out, c.Attribute)
	}
	return out
}

// Clone returns a deep copy so callers cannot mutate catalog-owned slices.
func (r Rule) Clone() Rule {
	cp := r
	cp.Conditions = append([]Assignment(nil), r.Conditions...)
	cp.Conclusion = append([]Assignment(nil), r.Conclusion...)
	return cp
}

// Firing records a rule that fired during a session.
type Firing struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
}

// Classification is the result tuple read from the resolved fact snapshot.
type Classification struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Classified reports whether a rule resolved the entity name.
func (c Classification) Classified() bool {
	return c.Name != "" && c.Name != Unclassified
}

// Phase is the session lifecycle state.
type Phase uint8

// Session phases. Transitions only move forward.
const (
	PhaseInit Phase = iota
	PhaseAccumulating
	PhaseInferring
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseInferring:
		return "inferring"
	case PhaseResolved:
		return "resolved"
	default:
		return "invalid"
	}
}
