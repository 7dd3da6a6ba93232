package risk

import (
	"strings"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

const (
	msgIncompleteInput        = "Incomplete input: content type, source and license status are all needed for a full assessment."
	msgClientLicenseRequired  = "A written license from the client is required before using this content."
	msgUnlicensedWebContent   = "Content downloaded from the web without a license must not be used."
	msgLicensePresent         = "A license is present; verify that it covers commercial use."
	msgManualReview           = "Manual review required: the source and license combination is not covered by a rule."
	msgSubjectReleaseRequired = "Identifiable people or brands appear: obtain a release or brand owner approval."
	msgDerivativeWork         = "Possible derivative-work risk; verify material difference in text, graphics and tone."
	msgTrademarkUse           = "Possible trademark use; verify registration and obtain brand owner approval."
	msgNoRiskIndicators       = "No clear risk indicators found; still recommended to document source and licensing."
)

// Evaluator turns a fact set into ordered findings. It is pure and safe for
// concurrent use.
type Evaluator struct {
	derivative []string
	trademark  []string
}

func NewEvaluator(p Policy) *Evaluator {
	return &Evaluator{
		derivative: normalizeKeywords(p.DerivativeKeywords),
		trademark:  normalizeKeywords(p.TrademarkKeywords),
	}
}

// Evaluate always returns at least one finding.
//
// Structured rules are skipped when input is incomplete; the subjects rule
// and the free-text heuristics run regardless.
func (e *Evaluator) Evaluate(f domain.FactSet) []domain.Finding {
	var out []domain.Finding
	add := func(sev domain.Severity, code, msg string) {
		out = append(out, domain.Finding{Severity: sev, Code: code, Message: msg})
	}

	contentType := norm(f.ContentType)
	source := norm(f.Source)
	license := norm(f.HasLicense)

	if contentType == "" || source == "" || license == "" {
		add(domain.SeverityInfo, CodeIncompleteInput, msgIncompleteInput)
	} else {
		matched := false
		if source == SourceFromClient && license == AnswerNo {
			add(domain.SeverityWarn, CodeClientLicenseRequired, msgClientLicenseRequired)
			matched = true
		}
		if source == SourceWeb && license == AnswerNo {
			add(domain.SeverityBlock, CodeUnlicensedWebContent, msgUnlicensedWebContent)
			matched = true
		}
		if license == AnswerYes {
			add(domain.SeverityInfo, CodeLicensePresent, msgLicensePresent)
			matched = true
		}
		if !matched {
			add(domain.SeverityWarn, CodeManualReview, msgManualReview)
		}
	}

	if norm(f.HasIdentifiableSubjects) == AnswerYes {
		add(domain.SeverityWarn, CodeSubjectReleaseRequired, msgSubjectReleaseRequired)
	}

	text := strings.ToLower(f.FreeText)
	if containsAny(text, e.derivative) {
		add(domain.SeverityWarn, CodeDerivativeWork, msgDerivativeWork)
	}
	if containsAny(text, e.trademark) {
		add(domain.SeverityWarn, CodeTrademarkUse, msgTrademarkUse)
	}

	if len(out) == 0 {
		add(domain.SeverityInfo, CodeNoRiskIndicators, msgNoRiskIndicators)
	}
	return out
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
