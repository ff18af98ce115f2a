package esq

// EntryKind selects how a mapping entry resolves its output value.
type EntryKind int

const (
	// KindCopy copies one answer verbatim; missing keys yield "".
	KindCopy EntryKind = iota
	// KindAverage computes the mean over a subset of numeric answers.
	KindAverage
	// KindTable expands a sub-table of question keys into one output
	// column per display label.
	KindTable
)

// SubField is one row of a KindTable entry.
type SubField struct {
	Key   string
	Label string
}

// Entry is one output column (or column block) of a mapping.
type Entry struct {
	Label  string
	Kind   EntryKind
	Key    string     // KindCopy
	Keys   []string   // KindAverage
	Fields []SubField // KindTable
}

// Mapping is the versioned field-mapping table for one respondent role.
type Mapping struct {
	Role    Role
	Entries []Entry
}

// Output column labels shared between the email sections and the exports.
const (
	ColSerial     = "Serial"
	ColSubjectCPR = "Barnets CPR-nummer"
	ColRole       = "Udfyldt af"
	ColAverage    = "Gennemsnitlig score"
)

// Answer keys of the ESQ webform.
const (
	KeySubjectCPR = "barnets_cpr_nummer"
	KeySubjectNam = "barnets_navn"
	KeyParentNam  = "foraelders_navn"
	KeyParentCPR  = "foraelders_cpr_nummer"
)

// scoreKeys is the numeric question subset feeding the derived average.
var scoreKeys = []string{
	"esq_01", "esq_02", "esq_03", "esq_04", "esq_05",
	"esq_06", "esq_07", "esq_08", "esq_09", "esq_10",
}

// scoreFields presents the score questions as a sub-table block.
var scoreFields = []SubField{
	{Key: "esq_01", Label: "Spørgsmål 1"},
	{Key: "esq_02", Label: "Spørgsmål 2"},
	{Key: "esq_03", Label: "Spørgsmål 3"},
	{Key: "esq_04", Label: "Spørgsmål 4"},
	{Key: "esq_05", Label: "Spørgsmål 5"},
	{Key: "esq_06", Label: "Spørgsmål 6"},
	{Key: "esq_07", Label: "Spørgsmål 7"},
	{Key: "esq_08", Label: "Spørgsmål 8"},
	{Key: "esq_09", Label: "Spørgsmål 9"},
	{Key: "esq_10", Label: "Spørgsmål 10"},
}

// identityEntries are shared between both role variants.
var identityEntries = []Entry{
	{Label: ColSubjectCPR, Kind: KindCopy, Key: KeySubjectCPR},
	{Label: "Barnets navn", Kind: KindCopy, Key: KeySubjectNam},
	{Label: ColRole, Kind: KindCopy, Key: QuestionRole},
}

// parentExtraEntries is the declarative difference list for the
// parent/guardian variant: the parent's own identity fields.
var parentExtraEntries = []Entry{
	{Label: "Forælders navn", Kind: KindCopy, Key: KeyParentNam},
	{Label: "Forælders CPR-nummer", Kind: KindCopy, Key: KeyParentCPR},
}

// tailEntries close every mapping: the question block and the derived
// average, which always comes last.
var tailEntries = []Entry{
	{Label: "Besvarelse", Kind: KindTable, Fields: scoreFields},
	{Label: ColAverage, Kind: KindAverage, Keys: scoreKeys},
}

var mappings = map[Role]*Mapping{
	RoleSelf:   buildMapping(RoleSelf, nil),
	RoleParent: buildMapping(RoleParent, parentExtraEntries),
}

func buildMapping(role Role, extra []Entry) *Mapping {
	entries := make([]Entry, 0, 1+len(identityEntries)+len(extra)+len(tailEntries))
	entries = append(entries, Entry{Label: ColSerial, Kind: KindCopy})
	entries = append(entries, identityEntries...)
	entries = append(entries, extra...)
	entries = append(entries, tailEntries...)
	return &Mapping{Role: role, Entries: entries}
}

// MappingFor returns the mapping variant for a recognized role.
func MappingFor(role Role) *Mapping {
	return mappings[role]
}

// Labels returns the flat output column labels in order. KindTable
// entries expand to one label per sub-field.
func (m *Mapping) Labels() []string {
	labels := make([]string, 0, len(m.Entries)+len(scoreFields))
	for _, e := range m.Entries {
		if e.Kind == KindTable {
			for _, f := range e.Fields {
				labels = append(labels, f.Label)
			}
			continue
		}
		labels = append(labels, e.Label)
	}
	return labels
}
