package wizard

import "github.com/PabloGalante/counsel-agent/internal/app/risk"

// Step is a position in the fact wizard.
type Step int

const (
	StepContentType Step = iota
	StepSource
	StepLicense
	StepSubjects
	StepFreeText
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepContentType:
		return "content_type"
	case StepSource:
		return "source"
	case StepLicense:
		return "license"
	case StepSubjects:
		return "subjects"
	case StepFreeText:
		return "free_text"
	case StepResult:
		return "result"
	default:
		return "unknown"
	}
}

// StepInfo describes one input step for clients.
type StepInfo struct {
	Step     Step     `json:"-"`
	Name     string   `json:"name"`
	Field    string   `json:"field"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options,omitempty"`
	Optional bool     `json:"optional"`
}

var steps = []StepInfo{
	{
		Step:    StepContentType,
		Field:   "content_type",
		Prompt:  "What kind of content is it?",
		Options: risk.ContentTypes,
	},
	{
		Step:    StepSource,
		Field:   "source",
		Prompt:  "Where does the content come from?",
		Options: risk.Sources,
	},
	{
		Step:    StepLicense,
		Field:   "has_license",
		Prompt:  "Is there a license for this use?",
		Options: risk.LicenseAnswers,
	},
	{
		Step:    StepSubjects,
		Field:   "has_identifiable_subjects",
		Prompt:  "Does it show identifiable people or brands?",
		Options: risk.SubjectAnswers,
	},
	{
		Step:     StepFreeText,
		Field:    "free_text",
		Prompt:   "Describe the intended use (optional).",
		Optional: true,
	},
}

// Steps returns the input steps in order. Result is not included.
func Steps() []StepInfo {
	out := make([]StepInfo, len(steps))
	for i, s := range steps {
		s.Name = s.Step.String()
		s.Options = append([]string(nil), s.Options...)
		out[i] = s
	}
	return out
}
