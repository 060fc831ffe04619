package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RequiredField names one required KYC field. AnyOf lists acceptable field
// names within the section; the first present, non-blank one satisfies it.
type RequiredField struct {
	Section string   `yaml:"section"`
	AnyOf   []string `yaml:"any_of"`
}

type QualityPolicy struct {
	RequiredFields  []RequiredField `yaml:"required_fields"`
	MinCompleteness float64         `yaml:"min_completeness"`
}

type RiskPolicy struct {
	PEPWeight              float64            `yaml:"pep_weight"`
	SanctionsFlaggedWeight float64            `yaml:"sanctions_flagged_weight"`
	SanctionsUnknownWeight float64            `yaml:"sanctions_unknown_weight"`
	CompletenessFactor     float64            `yaml:"completeness_factor"`
	CompletenessCap        float64            `yaml:"completeness_cap"`
	FactorWeights          map[string]float64 `yaml:"factor_weights"`
	FactorCap              float64            `yaml:"factor_cap"`
	HighDepositThreshold   float64            `yaml:"high_deposit_threshold"`
	LowBandMax             float64            `yaml:"low_band_max"`
	HighBandMin            float64            `yaml:"high_band_min"`
}

// Policy carries every tunable scoring weight and threshold of the pipeline.
// The defaults implement the standard compliance policy; a YAML file can
// override any part of it.
type Policy struct {
	Quality QualityPolicy `yaml:"quality"`
	Risk    RiskPolicy    `yaml:"risk"`
}

func DefaultPolicy() Policy {
	return Policy{
		Quality: QualityPolicy{
			RequiredFields: []RequiredField{
				{Section: "personal_information", AnyOf: []string{"full_name"}},
				{Section: "personal_information", AnyOf: []string{"date_of_birth"}},
				{Section: "personal_information", AnyOf: []string{"address"}},
				{Section: "identification_documents", AnyOf: []string{"id_number", "passport_number", "national_id"}},
				{Section: "account_information", AnyOf: []string{"source_of_funds"}},
			},
			MinCompleteness: 80,
		},
		Risk: RiskPolicy{
			PEPWeight:              40,
			SanctionsFlaggedWeight: 40,
			SanctionsUnknownWeight: 10,
			CompletenessFactor:     0.3,
			CompletenessCap:        20,
			FactorWeights: map[string]float64{
				"high_initial_deposit":    10,
				"cash_intensive_business": 10,
				"high_risk_jurisdiction":  15,
			},
			FactorCap:            20,
			HighDepositThreshold: 100000,
			LowBandMax:           30,
			HighBandMin:          70,
		},
	}
}

// LoadPolicy reads a YAML policy file layered over the defaults. An empty
// path returns the defaults unchanged.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}
	return policy.normalize(), nil
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	out := p

	if len(out.Quality.RequiredFields) == 0 {
		out.Quality.RequiredFields = def.Quality.RequiredFields
	}
	if out.Quality.MinCompleteness <= 0 || out.Quality.MinCompleteness > 100 {
		out.Quality.MinCompleteness = def.Quality.MinCompleteness
	}
	if out.Risk.CompletenessFactor <= 0 {
		out.Risk.CompletenessFactor = def.Risk.CompletenessFactor
	}
	if out.Risk.CompletenessCap <= 0 {
		out.Risk.CompletenessCap = def.Risk.CompletenessCap
	}
	if out.Risk.FactorCap <= 0 {
		out.Risk.FactorCap = def.Risk.FactorCap
	}
	if len(out.Risk.FactorWeights) == 0 {
		out.Risk.FactorWeights = def.Risk.FactorWeights
	}
	if out.Risk.HighDepositThreshold <= 0 {
		out.Risk.HighDepositThreshold = def.Risk.HighDepositThreshold
	}
	if out.Risk.LowBandMax <= 0 || out.Risk.HighBandMin <= out.Risk.LowBandMax {
		out.Risk.LowBandMax = def.Risk.LowBandMax
		out.Risk.HighBandMin = def.Risk.HighBandMin
	}
	return out
}
