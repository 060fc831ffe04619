package domain

// KYCRecord is the draft structured record produced by the field-extraction
// service. Each section maps field name to extracted value; absent fields are
// simply missing keys. The record may be partially populated.
type KYCRecord struct {
	PersonalInformation     map[string]string `json:"personal_information"`
	IdentificationDocuments map[string]string `json:"identification_documents"`
	AccountInformation      map[string]string `json:"account_information"`
	ComplianceDeclarations  map[string]string `json:"compliance_declarations"`
	Confidence              float64           `json:"confidence,omitempty"`
}

func NewKYCRecord() *KYCRecord {
	return &KYCRecord{
		PersonalInformation:     map[string]string{},
		IdentificationDocuments: map[string]string{},
		AccountInformation:      map[string]string{},
		ComplianceDeclarations:  map[string]string{},
	}
}

// Section returns the named section map, or nil for an unknown section.
func (r *KYCRecord) Section(name string) map[string]string {
	switch name {
	case "personal_information":
		return r.PersonalInformation
	case "identification_documents":
		return r.IdentificationDocuments
	case "account_information":
		return r.AccountInformation
	case "compliance_declarations":
		return r.ComplianceDeclarations
	default:
		return nil
	}
}

// Field looks up a field value across a section, returning ok=false when the
// field is absent or blank.
func (r *KYCRecord) Field(section, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	sec := r.Section(section)
	if sec == nil {
		return "", false
	}
	v, ok := sec[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

type QualityReport struct {
	CompletenessScore float64  `json:"completeness_score"`
	ConsistencyIssues []string `json:"consistency_issues"`
	ConfidenceScore   float64  `json:"confidence_score"`
	MissingFields     []string `json:"missing_fields,omitempty"`
}

// Passes reports whether the record clears the quality gate at the given
// completeness threshold. Any consistency issue fails the gate.
func (q QualityReport) Passes(minCompleteness float64) bool {
	return q.CompletenessScore >= minCompleteness && len(q.ConsistencyIssues) == 0
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type SanctionsResult string

const (
	SanctionsPassed  SanctionsResult = "PASSED"
	SanctionsFlagged SanctionsResult = "FLAGGED"
	SanctionsUnknown SanctionsResult = "UNKNOWN"
)

type RiskFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

type RiskProfile struct {
	RiskScore       float64         `json:"risk_score"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	PEPFlag         bool            `json:"pep_flag"`
	SanctionsResult SanctionsResult `json:"sanctions_result"`
	RiskFactors     []RiskFactor    `json:"risk_factors,omitempty"`
}

type Route string

const (
	RouteAutoApprove            Route = "AUTO_APPROVE"
	RouteAdditionalVerification Route = "ADDITIONAL_VERIFICATION"
	RouteManualReview           Route = "MANUAL_REVIEW"
	RouteErrorResolution        Route = "ERROR_RESOLUTION"
)

// RoutingDecision is the terminal outcome of a document's pipeline run.
type RoutingDecision struct {
	Route  Route  `json:"route"`
	Reason string `json:"reason"`
}
