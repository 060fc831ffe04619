package openai

import (
	"fmt"

	"github.com/complyon/kyc-pipeline/internal/core/ports"
)

func buildFieldExtractionPrompt(input ports.FieldExtractionInput) string {
	return fmt.Sprintf(`You are a KYC onboarding analyst.
Extract structured customer data from the document text below.
Return a strict JSON object with exactly these keys:
personal_information (object: full_name, date_of_birth, address, nationality, ...),
identification_documents (object: id_number, passport_number, issue_date, expiration_date, ...),
account_information (object: account_type, initial_deposit, source_of_funds, expected_monthly_volume, ...),
compliance_declarations (object: pep_status, sanctions_check, risk_factors, ...),
confidence (number from 0 to 1).
Omit fields that are not present in the document. Dates as YYYY-MM-DD.
No markdown, no extra keys.

Document (%d page(s), images: %t):
%s`, input.PageCount, input.HasImages, input.Text)
}
