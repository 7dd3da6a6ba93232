package domain

// Severity of a risk finding.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityBlock Severity = "block"
)

// FactSet holds the structured answers collected by the fact wizard.
// An empty string means the field is unset.
type FactSet struct {
	ContentType             string `json:"content_type"`
	Source                  string `json:"source"`
	HasLicense              string `json:"has_license"`
	HasIdentifiableSubjects string `json:"has_identifiable_subjects"`
	FreeText                string `json:"free_text"`
}

// Finding is one output item of the risk evaluator.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}
