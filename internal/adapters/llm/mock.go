package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// ErrMockFailure is returned by MockAnalyzer when the text asks for it.
var ErrMockFailure = errors.New("mock analyzer: simulated failure")

// MockAnalyzer returns canned answers for local development. The reply ends
// with the prompt a real backend would receive. A question containing "#fail"
// simulates a service failure.
type MockAnalyzer struct{}

var _ domain.AnalysisService = (*MockAnalyzer)(nil)

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

func (m *MockAnalyzer) Analyze(_ context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if strings.Contains(req.Text, "#fail") {
		return nil, ErrMockFailure
	}

	var b strings.Builder
	b.WriteString("Preliminary assessment (mock): document the source and get a written license before commercial use.")
	if req.Text != "" {
		fmt.Fprintf(&b, "\nYou asked: %q.", req.Text)
	}
	if req.AttachmentURL != "" {
		fmt.Fprintf(&b, "\nAttached file reviewed: %s.", req.AttachmentURL)
	}
	if n := len(req.History); n > 0 {
		fmt.Fprintf(&b, "\nConsidered %d earlier messages.", n)
	}

	p := BuildPrompt(req)
	fmt.Fprintf(&b, "\n\nPrompt (%d chars of instructions):\n%s", len(p.System), p.User)
	return &domain.AnalysisResult{Summary: b.String()}, nil
}
