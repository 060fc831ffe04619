package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/complyon/kyc-pipeline/internal/config"
	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

// Validator checks completeness and cross-field consistency of a draft KYC
// record. Violations are recorded, never raised.
type Validator struct {
	policy config.QualityPolicy
}

func NewValidator(policy config.QualityPolicy) *Validator {
	return &Validator{policy: policy}
}

func (v *Validator) Validate(record *domain.KYCRecord) domain.QualityReport {
	if record == nil {
		missing := make([]string, 0, len(v.policy.RequiredFields))
		for _, rf := range v.policy.RequiredFields {
			missing = append(missing, requiredFieldLabel(rf))
		}
		return domain.QualityReport{
			CompletenessScore: 0,
			ConfidenceScore:   0,
			MissingFields:     missing,
			ConsistencyIssues: []string{"field extraction unavailable: no KYC record to validate"},
		}
	}

	present := 0
	var missing []string
	for _, rf := range v.policy.RequiredFields {
		if requiredFieldPresent(record, rf) {
			present++
		} else {
			missing = append(missing, requiredFieldLabel(rf))
		}
	}

	completeness := 0.0
	if total := len(v.policy.RequiredFields); total > 0 {
		completeness = float64(present) / float64(total) * 100
	}

	confidence := record.Confidence * 100
	if record.Confidence <= 0 {
		confidence = completeness
	}

	return domain.QualityReport{
		CompletenessScore: completeness,
		ConfidenceScore:   confidence,
		MissingFields:     missing,
		ConsistencyIssues: v.consistencyIssues(record),
	}
}

// consistencyIssues runs every check regardless of completeness; each
// violation appends one human-readable entry.
func (v *Validator) consistencyIssues(record *domain.KYCRecord) []string {
	issues := []string{}

	dateFields := []struct{ section, field string }{
		{"personal_information", "date_of_birth"},
		{"identification_documents", "issue_date"},
		{"identification_documents", "expiration_date"},
	}
	parsed := map[string]time.Time{}
	for _, df := range dateFields {
		raw, ok := record.Field(df.section, df.field)
		if !ok {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s.%s %q is not a parseable date", df.section, df.field, raw))
			continue
		}
		parsed[df.field] = t
	}

	issue, issueOK := parsed["issue_date"]
	expiry, expiryOK := parsed["expiration_date"]
	if issueOK && expiryOK && !expiry.After(issue) {
		issues = append(issues, fmt.Sprintf(
			"expiration_date %s is not after issue_date %s",
			expiry.Format("2006-01-02"), issue.Format("2006-01-02"),
		))
	}

	amountFields := []string{"initial_deposit", "expected_monthly_volume"}
	for _, field := range amountFields {
		raw, ok := record.Field("account_information", field)
		if !ok {
			continue
		}
		amount, err := ParseAmount(raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("account_information.%s %q is not a numeric amount", field, raw))
			continue
		}
		if amount < 0 {
			issues = append(issues, fmt.Sprintf("account_information.%s is negative: %s", field, raw))
		}
	}

	return issues
}

func requiredFieldPresent(record *domain.KYCRecord, rf config.RequiredField) bool {
	for _, name := range rf.AnyOf {
		if _, ok := record.Field(rf.Section, name); ok {
			return true
		}
	}
	return false
}

func requiredFieldLabel(rf config.RequiredField) string {
	if len(rf.AnyOf) == 1 {
		return rf.Section + "." + rf.AnyOf[0]
	}
	return rf.Section + ".(" + strings.Join(rf.AnyOf, "|") + ")"
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2 January 2006",
	"January 2, 2006",
}

func parseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

// ParseAmount reads a monetary amount, tolerating currency symbols, thousands
// separators, and surrounding whitespace.
func ParseAmount(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ':
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	return strconv.ParseFloat(cleaned, 64)
}
