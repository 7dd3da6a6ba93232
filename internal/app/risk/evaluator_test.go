package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/counsel-agent/internal/app/risk"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

func newEvaluator() *risk.Evaluator {
	return risk.NewEvaluator(risk.DefaultPolicy())
}

func codes(findings []domain.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Code)
	}
	return out
}

func complete(source, license string) domain.FactSet {
	return domain.FactSet{
		ContentType: risk.ContentImage,
		Source:      source,
		HasLicense:  license,
	}
}

func TestEvaluate_Empty(t *testing.T) {
	got := newEvaluator().Evaluate(domain.FactSet{})

	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityInfo, got[0].Severity)
	assert.Equal(t, risk.CodeIncompleteInput, got[0].Code)
	assert.NotEmpty(t, got[0].Message)
}

func TestEvaluate_IncompleteSuppressesStructuredRulesOnly(t *testing.T) {
	structured := []string{
		risk.CodeClientLicenseRequired,
		risk.CodeUnlicensedWebContent,
		risk.CodeLicensePresent,
		risk.CodeManualReview,
	}

	cases := []domain.FactSet{
		{Source: risk.SourceFromClient, HasLicense: risk.AnswerNo},
		{ContentType: risk.ContentVideo, HasLicense: risk.AnswerYes},
		{ContentType: risk.ContentVideo, Source: risk.SourceWeb},
		{ContentType: risk.ContentText, Source: risk.SourceWeb, HasIdentifiableSubjects: risk.AnswerYes, FreeText: "similar to their logo"},
	}

	for _, facts := range cases {
		got := newEvaluator().Evaluate(facts)
		require.NotEmpty(t, got)
		assert.Equal(t, domain.SeverityInfo, got[0].Severity)
		assert.Equal(t, risk.CodeIncompleteInput, got[0].Code)
		for _, code := range structured {
			assert.NotContains(t, codes(got), code)
		}
	}

	last := newEvaluator().Evaluate(cases[3])
	assert.Equal(t, []string{
		risk.CodeIncompleteInput,
		risk.CodeSubjectReleaseRequired,
		risk.CodeDerivativeWork,
		risk.CodeTrademarkUse,
	}, codes(last))
}

func TestEvaluate_StructuredRules(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		license string
		want    []string
		sev     domain.Severity
	}{
		{"client without license", risk.SourceFromClient, risk.AnswerNo, []string{risk.CodeClientLicenseRequired}, domain.SeverityWarn},
		{"web without license", risk.SourceWeb, risk.AnswerNo, []string{risk.CodeUnlicensedWebContent}, domain.SeverityBlock},
		{"client with license", risk.SourceFromClient, risk.AnswerYes, []string{risk.CodeLicensePresent}, domain.SeverityInfo},
		{"web with license", risk.SourceWeb, risk.AnswerYes, []string{risk.CodeLicensePresent}, domain.SeverityInfo},
		{"in-house without license", risk.SourceInHouse, risk.AnswerNo, []string{risk.CodeManualReview}, domain.SeverityWarn},
		{"stock unknown license", risk.SourceStock, risk.AnswerUnknown, []string{risk.CodeManualReview}, domain.SeverityWarn},
		{"web unknown license", risk.SourceWeb, risk.AnswerUnknown, []string{risk.CodeManualReview}, domain.SeverityWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newEvaluator().Evaluate(complete(tt.source, tt.license))
			assert.Equal(t, tt.want, codes(got))
			assert.Equal(t, tt.sev, got[0].Severity)
		})
	}
}

func TestEvaluate_ClientWithoutLicenseAlwaysWarns(t *testing.T) {
	for _, ct := range risk.ContentTypes {
		for _, subj := range []string{"", risk.AnswerYes, risk.AnswerNo} {
			for _, text := range []string{"", "inspired by a poster", "our brand"} {
				facts := domain.FactSet{
					ContentType:             ct,
					Source:                  risk.SourceFromClient,
					HasLicense:              risk.AnswerNo,
					HasIdentifiableSubjects: subj,
					FreeText:                text,
				}
				got := newEvaluator().Evaluate(facts)
				assert.Contains(t, codes(got), risk.CodeClientLicenseRequired)
			}
		}
	}
}

func TestEvaluate_SubjectsIndependentOfStructuredRules(t *testing.T) {
	sources := []string{risk.SourceFromClient, risk.SourceWeb}
	licenses := []string{risk.AnswerYes, risk.AnswerNo, risk.AnswerUnknown}

	for _, src := range sources {
		for _, lic := range licenses {
			facts := complete(src, lic)
			facts.HasIdentifiableSubjects = risk.AnswerYes

			got := codes(newEvaluator().Evaluate(facts))
			assert.Contains(t, got, risk.CodeSubjectReleaseRequired, "%s/%s", src, lic)
			assert.Len(t, got, 2, "%s/%s", src, lic)
		}
	}

	// and with incomplete input
	got := codes(newEvaluator().Evaluate(domain.FactSet{HasIdentifiableSubjects: risk.AnswerYes}))
	assert.Equal(t, []string{risk.CodeIncompleteInput, risk.CodeSubjectReleaseRequired}, got)
}

func TestEvaluate_FreeTextHeuristics(t *testing.T) {
	base := complete(risk.SourceInHouse, risk.AnswerYes)

	tests := []struct {
		text string
		want []string
	}{
		{"A poster Similar To the Nike campaign", []string{risk.CodeLicensePresent, risk.CodeDerivativeWork}},
		{"uses a registered TRADEMARK", []string{risk.CodeLicensePresent, risk.CodeTrademarkUse}},
		{"trademark artwork similar to theirs", []string{risk.CodeLicensePresent, risk.CodeDerivativeWork, risk.CodeTrademarkUse}},
		{"עיצוב בהשראת הלוגו של החברה", []string{risk.CodeLicensePresent, risk.CodeDerivativeWork, risk.CodeTrademarkUse}},
		{"a small company newsletter", []string{risk.CodeLicensePresent}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			facts := base
			facts.FreeText = tt.text
			assert.Equal(t, tt.want, codes(newEvaluator().Evaluate(facts)))
		})
	}
}

func TestEvaluate_NeverEmpty(t *testing.T) {
	ev := newEvaluator()
	values := func(opts []string) []string { return append([]string{""}, opts...) }

	for _, ct := range values(risk.ContentTypes) {
		for _, src := range values(risk.Sources) {
			for _, lic := range values(risk.LicenseAnswers) {
				for _, subj := range values(risk.SubjectAnswers) {
					got := ev.Evaluate(domain.FactSet{
						ContentType:             ct,
						Source:                  src,
						HasLicense:              lic,
						HasIdentifiableSubjects: subj,
					})
					require.NotEmpty(t, got)
				}
			}
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	facts := domain.FactSet{
		ContentType:             risk.ContentMusic,
		Source:                  risk.SourceWeb,
		HasLicense:              risk.AnswerNo,
		HasIdentifiableSubjects: risk.AnswerYes,
		FreeText:                "reminiscent of a famous brand jingle",
	}
	ev := newEvaluator()
	first := ev.Evaluate(facts)
	for range 10 {
		assert.Equal(t, first, ev.Evaluate(facts))
	}
	assert.Equal(t, []string{
		risk.CodeUnlicensedWebContent,
		risk.CodeSubjectReleaseRequired,
		risk.CodeDerivativeWork,
		risk.CodeTrademarkUse,
	}, codes(first))
}
