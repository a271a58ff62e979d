package extraction

import (
	"fmt"
	"strings"

	"github.com/agenthands/lossrun/internal/core/model"
)

const claimJSONShape = `{
  "policy_number": "string or null",
  "insured_name": "string or null",
  "report_date": "YYYY-MM-DD or null",
  "policy_period": "string or null",
  "claims": [
    {
      "employee_name": "full name",
      "claim_number": "claim number",
      "injury_date_time": "YYYY-MM-DD",
      "status": "Open or Closed or Reopened",
      "injury_description": "description",
      "body_part": "body part or null",
      "injury_type": "MED or COMP",
      "claim_class": "class code or null",
      "medical_paid": 0.0,
      "medical_reserve": 0.0,
      "indemnity_paid": 0.0,
      "indemnity_reserve": 0.0,
      "expense_paid": 0.0,
      "expense_reserve": 0.0,
      "recovery": 0.0,
      "deductible": 0.0,
      "total_incurred": 0.0
    }
  ]
}`

const generalRules = `GENERAL EXTRACTION RULES (apply to ALL formats):

1. CLAIM NUMBER vs POLICY NUMBER: a number repeated for multiple employees is
   a POLICY number; never extract it as a claim number. Extract claim numbers
   EXACTLY as written; never invent suffixes.
2. EMPLOYEE NAME: look for "Claimant:", "Employee Name:" or similar labels.
3. DATES: ALWAYS use "DOL" / "Date of Loss" for injury_date_time, never
   "Date Rcvd" or "First Aware". Convert all dates to YYYY-MM-DD.
4. STATUS: C/Closed -> "Closed", O/Open -> "Open",
   R/RC/REOP/Reopened -> "Reopened".
5. INJURY TYPE: Medical/MED/MEDI/"Medical Only"/"Record Only" -> "MED";
   Indemnity/COMP/Compensation/TTD/TPD/PPD -> "COMP".
6. NUMBERS: remove $ signs and commas; "$51,068.57" -> 51068.57.
7. NULL VALUES: null for truly missing data, 0.0 for zero financial fields.
8. MATH: Medical(Paid+Res) + Indemnity(Paid+Res) + Expense(Paid+Res)
   - Recovery == Total Incurred. If it does not balance, re-check the
   column headers before answering.`

const multiRowRules = `COMPLEX MULTI-ROW FORMAT DETECTED.
Financial data spans several rows per claim (e.g. Reserves / Payments /
Incurred). Follow the row mapping from the format analysis exactly. If both
TD (temporary disability) and PD (permanent disability) amounts exist for a
claim, SUM them into the indemnity fields. Paid + Reserve must equal Incurred
for each category; a mismatch means swapped rows or missed TD/PD summation.`

const simpleColumnRules = `SIMPLE COLUMNAR FORMAT DETECTED.
Each claim is one row with labeled columns (Med Paid, Med Resv, Ind Paid,
Ind Resv, Exp Paid, Exp Resv, Recov, Total Inc). Read values directly from
the columns; no calculations needed.`

const unknownFormatRules = `UNKNOWN/MIXED FORMAT DETECTED.
Carefully analyze each claim's structure before extracting. Validate every
extraction by checking that Paid + Reserve reconciles with Incurred.`

func formatRules(format FormatInfo) string {
	var rules string
	switch format.FormatType {
	case FormatComplexMultiRow:
		rules = multiRowRules
	case FormatSimpleColumns:
		rules = simpleColumnRules
	default:
		rules = unknownFormatRules
	}
	if instr := format.FinancialMapping.DynamicInstruction; instr != "" {
		rules += "\n\nLAYOUT-SPECIFIC RULE:\n" + instr
	}
	return rules
}

func buildExtractionPrompt(text string, master []model.MasterListEntry, format FormatInfo) string {
	masterList := "No pre-detected list available. Detect claims dynamically."
	if len(master) > 0 {
		numbers := make([]string, len(master))
		for i, e := range master {
			numbers[i] = e.ClaimNumber
		}
		masterList = strings.Join(numbers, ", ")
	}

	var b strings.Builder
	b.WriteString("You are an expert at extracting structured data from insurance loss run reports.\n\n")

	fmt.Fprintf(&b, "DOCUMENT FORMAT ANALYSIS:\nInsurer: %s\nFormat: %s\nClaim layout: %s\n\n",
		format.Insurer, format.FormatType, format.ClaimLayout)
	b.WriteString(formatRules(format))

	fmt.Fprintf(&b, `

=== ACCURACY CONSTRAINTS (MANDATORY) ===
1. MASTER CLAIM LIST: %s
2. ZERO-PHANTOM POLICY: Extract ONLY claims from the MASTER CLAIM LIST above.
   NEVER include placeholder names like 'John Smith', 'Jane Doe', or
   'Jane Smith'; these are calibration examples, not data in this document.
   If a claim ID is not in the list, DO NOT extract it.
3. FIELD INTEGRITY: Do NOT swap Medical and Indemnity columns. Check headers
   for each row.
4. CURRENCY: Remove all symbols ($, ,) and return numbers as floats.

Extract EVERY SINGLE CLAIM from this document.

Return JSON:
%s

%s

TEXT TO ANALYZE:
%s

Return ONLY the JSON object. No explanations. No markdown.
This document may have MULTIPLE policy sections: scan the ENTIRE text from
beginning to end and extract claims from ALL sections, not just the first.
`, masterList, claimJSONShape, generalRules, text)

	return b.String()
}

const correctionNote = `MATH VALIDATION FAILED for these claims in the previous pass.
Common causes:
1. Swapped Medical and Indemnity columns.
2. Missed Recovery/Subro column (often the rightmost column).
3. Confusing Reserves with Paid amounts in multi-row layouts.

RE-EXAMINE the column headers and row labels for these specific IDs and ensure the math balances:
Medical(Paid+Res) + Indemnity(Paid+Res) + Expense(Paid+Res) - Recovery == Total Incurred.

`

func buildTargetedPrompt(text string, claimNumbers []string, correction bool) string {
	note := ""
	if correction {
		note = correctionNote
	}
	return fmt.Sprintf(`You are an expert insurance data extractor.
%s
Your task: Extract COMPLETE data for ONLY these specific claim numbers:
%s

Return JSON:
%s

STRICT RULES:
1. DO NOT include any claims NOT in the list above.
2. Ensure math balances perfectly.
3. Check whether 'Total Incurred' includes or excludes 'Recovery'.

TEXT TO ANALYZE:
%s

Return ONLY the JSON.`, note, strings.Join(claimNumbers, ", "), claimJSONShape, text)
}
