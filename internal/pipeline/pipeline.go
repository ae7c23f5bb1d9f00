package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
	"github.com/panopticlick/Panopticlick-sub001/internal/persona"
	"github.com/panopticlick/Panopticlick-sub001/internal/rtb"
)

// Step is one stage of report assembly.
type Step interface {
	// Do reads the assembly and records the step's result in it.
	Do(a *Assembly) error

	// Name returns the step's name for logging and error reporting.
	Name() string
}

// Assembly is the working state of one report assembly.
// It is private to a single Assemble call.
type Assembly struct {
	Payload     *model.FingerprintPayload
	TestResults model.TestResults

	Entropy   model.EntropyBreakdown
	Defenses  model.DefenseStatus
	Persona   model.Persona
	Valuation model.Valuation
}

// Assembler composes the engine components into a report.
// It holds no per-call state and is safe for concurrent use as long as
// its random source is.
type Assembler struct {
	tables methodology.Tables
	rules  []persona.Rule
	source rtb.Source
	steps  []Step

	logger     *slog.Logger
	now        func() time.Time
	newID      func() (string, error)
	verifyHash bool
}

// Option is a function that configures an Assembler.
type Option func(*Assembler)

// WithLogger sets a custom logger for the assembler.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithIDGenerator sets the report id generator. The default produces UUIDv7.
// A generator error aborts the assembly.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(a *Assembler) {
		a.newID = newID
	}
}

// WithSource sets the auction random source. The default is crypto/rand.
func WithSource(source rtb.Source) Option {
	return func(a *Assembler) {
		a.source = source
	}
}

// WithRules replaces the persona rule list.
func WithRules(rules []persona.Rule) Option {
	return func(a *Assembler) {
		a.rules = rules
	}
}

// WithHashVerification makes the validate step reject payloads whose
// meta.hash is not the digest of their signals.
func WithHashVerification(verify bool) Option {
	return func(a *Assembler) {
		a.verifyHash = verify
	}
}

// NewAssembler creates an Assembler over validated methodology tables.
func NewAssembler(tables methodology.Tables, opts ...Option) *Assembler {
	a := &Assembler{
		tables: tables,
		rules:  persona.DefaultRules(),
		now:    time.Now,
		newID:  newReportID,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.source == nil {
		a.source = rtb.NewCryptoSource()
	}

	a.steps = []Step{
		&ValidateStep{verifyHash: a.verifyHash},
		&EntropyStep{tables: a.tables},
		&DefenseStep{weights: a.tables.DefenseWeights},
		&PersonaStep{rules: a.rules},
		&RTBStep{simulator: rtb.NewSimulator(a.tables, a.source)},
	}

	return a
}

// Assemble values a payload with no client-side test results.
func (a *Assembler) Assemble(p *model.FingerprintPayload) (*model.ValuationReport, error) {
	return a.AssembleWithTests(p, model.TestResults{})
}

// AssembleSubmission values a decoded collector submission.
func (a *Assembler) AssembleSubmission(s *model.Submission) (*model.ValuationReport, error) {
	if s == nil {
		return a.AssembleWithTests(nil, model.TestResults{})
	}
	return a.AssembleWithTests(&s.FingerprintPayload, s.TestResults)
}

// AssembleWithTests runs every step in order and builds the report.
// On failure it returns nil and an *AssemblyError.
func (a *Assembler) AssembleWithTests(p *model.FingerprintPayload, results model.TestResults) (*model.ValuationReport, error) {
	asm := &Assembly{Payload: p, TestResults: results}

	for _, step := range a.steps {
		a.logger.Debug("executing step", "step", step.Name())

		if err := step.Do(asm); err != nil {
			a.logger.Error("step failed",
				"step", step.Name(),
				"error", err,
			)
			return nil, &AssemblyError{Step: step.Name(), Err: err}
		}
	}

	reportID, err := a.newID()
	if err != nil {
		a.logger.Error("report id generation failed", "error", err)
		return nil, &AssemblyError{Step: StepReportID, Err: fmt.Errorf("%w: %w", ErrReportID, err)}
	}

	report := &model.ValuationReport{
		Meta: model.ReportMeta{
			ReportID:    reportID,
			GeneratedAt: a.now().UTC(),
			PayloadHash: p.Meta.Hash,
		},
		Entropy:   asm.Entropy,
		Valuation: asm.Valuation,
		Defenses:  asm.Defenses,
	}

	a.logger.Debug("report assembled",
		"report_id", report.Meta.ReportID,
		"hash", report.Meta.PayloadHash,
		"total_bits", report.Entropy.TotalBits,
		"defense_score", report.Defenses.Score,
	)

	return report, nil
}

// StepNames returns the names of all steps in execution order.
func (a *Assembler) StepNames() []string {
	names := make([]string, len(a.steps))
	for i, step := range a.steps {
		names[i] = step.Name()
	}
	return names
}

func newReportID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
