package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/counsel-agent/internal/app/risk"
	"github.com/PabloGalante/counsel-agent/internal/domain"
	"github.com/PabloGalante/counsel-agent/internal/observability"
)

var (
	ErrFieldRequired = errors.New("a value is required for this step")
	ErrAtFirstStep   = errors.New("already at the first step")
	ErrFinished      = errors.New("wizard finished, start a new check")
	ErrInvalidOption = errors.New("value is not one of the step options")
)

// Wizard collects a fact set step by step and evaluates it on completion.
// A Wizard is not safe for concurrent use.
type Wizard struct {
	evaluator *risk.Evaluator

	step     Step
	facts    domain.FactSet
	findings []domain.Finding
}

func New(evaluator *risk.Evaluator) *Wizard {
	return &Wizard{evaluator: evaluator}
}

func (w *Wizard) Step() Step { return w.step }

// Done reports whether the wizard reached Result.
func (w *Wizard) Done() bool { return w.step == StepResult }

func (w *Wizard) Facts() domain.FactSet { return w.facts }

// Findings is nil until the wizard reaches Result.
func (w *Wizard) Findings() []domain.Finding {
	return append([]domain.Finding(nil), w.findings...)
}

// Options lists the accepted values of the current step. Nil means free input.
func (w *Wizard) Options() []string {
	if w.step >= StepResult {
		return nil
	}
	return append([]string(nil), steps[w.step].Options...)
}

// Value returns the field bound to the current step.
func (w *Wizard) Value() string {
	if f := w.field(); f != nil {
		return *f
	}
	return ""
}

// Set binds value to the current step's field. Empty clears it.
func (w *Wizard) Set(value string) error {
	field := w.field()
	if field == nil {
		return ErrFinished
	}

	value = strings.TrimSpace(value)
	if value == "" || w.step == StepFreeText {
		*field = value
		return nil
	}

	for _, opt := range steps[w.step].Options {
		if strings.EqualFold(opt, value) {
			*field = opt
			return nil
		}
	}
	return fmt.Errorf("%w: %q for %s", ErrInvalidOption, value, w.step)
}

// Next advances one step. Leaving FreeText evaluates the facts and enters
// Result, which is terminal until Reset.
func (w *Wizard) Next() error {
	switch {
	case w.step == StepResult:
		return ErrFinished
	case w.step == StepFreeText:
		w.findings = w.evaluator.Evaluate(w.facts)
		for _, f := range w.findings {
			observability.RecordFinding(string(f.Severity))
		}
		w.step = StepResult
		return nil
	case w.Value() == "":
		return fmt.Errorf("%w: %s", ErrFieldRequired, w.step)
	}
	w.step++
	return nil
}

// Back returns to the previous step. Bound values are kept.
func (w *Wizard) Back() error {
	switch w.step {
	case StepContentType:
		return ErrAtFirstStep
	case StepResult:
		return ErrFinished
	}
	w.step--
	return nil
}

// Reset clears every field and returns to the first step.
func (w *Wizard) Reset() {
	w.step = StepContentType
	w.facts = domain.FactSet{}
	w.findings = nil
}

func (w *Wizard) field() *string {
	switch w.step {
	case StepContentType:
		return &w.facts.ContentType
	case StepSource:
		return &w.facts.Source
	case StepLicense:
		return &w.facts.HasLicense
	case StepSubjects:
		return &w.facts.HasIdentifiableSubjects
	case StepFreeText:
		return &w.facts.FreeText
	default:
		return nil
	}
}
