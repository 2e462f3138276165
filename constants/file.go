package constants

import "strings"

// File formats accepted by the rule and claim loaders.
const (
	FormatYAML = "YAML"
	FormatJSON = "JSON"
	FormatCSV  = "CSV"
	FormatXLSX = "XLSX"
)

// RuleFileExtensions maps rule file extensions to their format.
var RuleFileExtensions = map[string]string{
	"yaml": FormatYAML,
	"yml":  FormatYAML,
	"json": FormatJSON,
	"csv":  FormatCSV,
	"xlsx": FormatXLSX,
}

// ClaimFileExtensions maps claim file extensions to their format.
var ClaimFileExtensions = map[string]string{
	"csv":  FormatCSV,
	"xlsx": FormatXLSX,
}

// ClaimColumns are the columns a claim upload must carry.
var ClaimColumns = []string{
	"claim_id", "encounter_type", "service_date", "national_id", "member_id",
	"facility_id", "unique_id", "diagnosis_codes", "service_code", "paid_amount_aed",
	"approval_number",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves ext against the given table; "" when unsupported.
func MapExtToFormat(table map[string]string, ext string) string {
	return table[NormalizeExt(ext)]
}
