package curriculum

// Section groups topics into broad curriculum areas. The set is fixed at
// authoring time; the planner uses it for interleaving and section balance.
type Section string

const (
	SectionNumeracy   Section = "numeracy"
	SectionAlgebra    Section = "algebra"
	SectionGeometry   Section = "geometry"
	SectionStatistics Section = "statistics"
)

// Sections lists all valid sections in display order.
var Sections = []Section{SectionNumeracy, SectionAlgebra, SectionGeometry, SectionStatistics}

// Valid reports whether s is one of the known sections.
func (s Section) Valid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// Topic represents a curriculum topic loaded from YAML. Topics form a DAG
// through their prerequisite references; nodes and edges are immutable after
// load. Cycle-freedom is an authoring-time invariant, not enforced here.
type Topic struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Section       Section  `yaml:"section" json:"section"`
	Prerequisites []string `yaml:"prerequisites" json:"prerequisites"`
	Description   string   `yaml:"description" json:"description"`
}
