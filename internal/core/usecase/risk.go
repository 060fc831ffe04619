package usecase

import (
	"sort"
	"strings"

	"github.com/complyon/kyc-pipeline/internal/config"
	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

// Scorer computes a deterministic weighted risk score from the KYC record and
// its quality report, then maps it to a risk band.
type Scorer struct {
	policy config.RiskPolicy
}

func NewScorer(policy config.RiskPolicy) *Scorer {
	return &Scorer{policy: policy}
}

func (s *Scorer) Score(record *domain.KYCRecord, quality domain.QualityReport) domain.RiskProfile {
	pep := s.pepFlag(record)
	sanctions := s.sanctionsResult(record)
	factors := s.riskFactors(record)

	score := 0.0
	if pep {
		score += s.policy.PEPWeight
	}
	switch sanctions {
	case domain.SanctionsFlagged:
		score += s.policy.SanctionsFlaggedWeight
	case domain.SanctionsUnknown:
		score += s.policy.SanctionsUnknownWeight
	}

	missingPenalty := (100 - quality.CompletenessScore) * s.policy.CompletenessFactor
	if missingPenalty > s.policy.CompletenessCap {
		missingPenalty = s.policy.CompletenessCap
	}
	if missingPenalty > 0 {
		score += missingPenalty
	}

	factorSum := 0.0
	for _, f := range factors {
		factorSum += f.Weight
	}
	if factorSum > s.policy.FactorCap {
		factorSum = s.policy.FactorCap
	}
	score += factorSum

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return domain.RiskProfile{
		RiskScore:       score,
		RiskLevel:       s.level(score),
		PEPFlag:         pep,
		SanctionsResult: sanctions,
		RiskFactors:     factors,
	}
}

// level maps score to band: below LowBandMax is LOW, above HighBandMin is
// HIGH, the boundaries themselves land in MEDIUM.
func (s *Scorer) level(score float64) domain.RiskLevel {
	switch {
	case score < s.policy.LowBandMax:
		return domain.RiskLow
	case score > s.policy.HighBandMin:
		return domain.RiskHigh
	default:
		return domain.RiskMedium
	}
}

func (s *Scorer) pepFlag(record *domain.KYCRecord) bool {
	raw, ok := record.Field("compliance_declarations", "pep_status")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true":
		return true
	default:
		return false
	}
}

func (s *Scorer) sanctionsResult(record *domain.KYCRecord) domain.SanctionsResult {
	raw, ok := record.Field("compliance_declarations", "sanctions_check")
	if !ok {
		return domain.SanctionsUnknown
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "passed", "clear", "pass":
		return domain.SanctionsPassed
	case "flagged", "hit", "match", "failed":
		return domain.SanctionsFlagged
	default:
		return domain.SanctionsUnknown
	}
}

// riskFactors collects the declared and derived risk factors that carry a
// configured weight. Output order is deterministic.
func (s *Scorer) riskFactors(record *domain.KYCRecord) []domain.RiskFactor {
	if record == nil {
		return nil
	}

	names := map[string]struct{}{}

	if raw, ok := record.Field("compliance_declarations", "risk_factors"); ok {
		for _, part := range strings.Split(raw, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if _, known := s.policy.FactorWeights[name]; known {
				names[name] = struct{}{}
			}
		}
	}

	if raw, ok := record.Field("account_information", "initial_deposit"); ok {
		if amount, err := ParseAmount(raw); err == nil && amount >= s.policy.HighDepositThreshold {
			if _, known := s.policy.FactorWeights["high_initial_deposit"]; known {
				names["high_initial_deposit"] = struct{}{}
			}
		}
	}

	if raw, ok := record.Field("account_information", "source_of_funds"); ok {
		if strings.Contains(strings.ToLower(raw), "cash") {
			if _, known := s.policy.FactorWeights["cash_intensive_business"]; known {
				names["cash_intensive_business"] = struct{}{}
			}
		}
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	factors := make([]domain.RiskFactor, 0, len(ordered))
	for _, name := range ordered {
		factors = append(factors, domain.RiskFactor{Name: name, Weight: s.policy.FactorWeights[name]})
	}
	return factors
}
