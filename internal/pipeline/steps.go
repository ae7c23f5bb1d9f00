package pipeline

import (
	"fmt"

	"github.com/panopticlick/Panopticlick-sub001/internal/defense"
	"github.com/panopticlick/Panopticlick-sub001/internal/entropy"
	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
	"github.com/panopticlick/Panopticlick-sub001/internal/persona"
	"github.com/panopticlick/Panopticlick-sub001/internal/rtb"
)

// Step names, in execution order.
const (
	StepValidate = "validate"
	StepEntropy  = "entropy"
	StepDefense  = "defense"
	StepPersona  = "persona"
	StepRTB      = "rtb"
)

// StepReportID names the failure of report id generation, which runs after
// every step has succeeded.
const StepReportID = "report-id"

// ValidateStep rejects payloads without a usable envelope.
type ValidateStep struct {
	verifyHash bool
}

// Name implements Step.
func (s *ValidateStep) Name() string { return StepValidate }

// Do implements Step.
func (s *ValidateStep) Do(a *Assembly) error {
	if err := a.Payload.Validate(); err != nil {
		return err
	}
	if !s.verifyHash {
		return nil
	}
	digest, err := model.Digest(a.Payload)
	if err != nil {
		return err
	}
	if digest != a.Payload.Meta.Hash {
		return fmt.Errorf("%w: got %s, computed %s", ErrHashMismatch, a.Payload.Meta.Hash, digest)
	}
	return nil
}

// EntropyStep computes the uniqueness breakdown.
type EntropyStep struct {
	tables methodology.Tables
}

// Name implements Step.
func (s *EntropyStep) Name() string { return StepEntropy }

// Do implements Step.
func (s *EntropyStep) Do(a *Assembly) error {
	a.Entropy = entropy.Compute(a.Payload, s.tables)
	return nil
}

// DefenseStep scores installed protections.
type DefenseStep struct {
	weights []methodology.DefenseWeight
}

// Name implements Step.
func (s *DefenseStep) Name() string { return StepDefense }

// Do implements Step.
func (s *DefenseStep) Do(a *Assembly) error {
	a.Defenses = defense.Score(a.Payload, a.TestResults, s.weights)
	return nil
}

// PersonaStep infers the advertiser persona.
type PersonaStep struct {
	rules []persona.Rule
}

// Name implements Step.
func (s *PersonaStep) Name() string { return StepPersona }

// Do implements Step.
func (s *PersonaStep) Do(a *Assembly) error {
	a.Persona = persona.Infer(a.Payload, s.rules)
	return nil
}

// RTBStep runs the auction for the inferred persona and entropy tier.
// It depends on the entropy and persona steps having run.
type RTBStep struct {
	simulator *rtb.Simulator
}

// Name implements Step.
func (s *RTBStep) Name() string { return StepRTB }

// Do implements Step.
func (s *RTBStep) Do(a *Assembly) error {
	result, err := s.simulator.Simulate(a.Persona, a.Entropy.Tier)
	if err != nil {
		return err
	}
	a.Valuation = rtb.Value(a.Persona, result)
	return nil
}
