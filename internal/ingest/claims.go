package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var serviceDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01-02-06",
	"1/2/2006",
	"1/2/06",
}

// LoadClaimsFile parses the claims in a CSV or XLSX file.
func LoadClaimsFile(path string) ([]*entity.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open claims: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadClaims(filepath.Base(path), f)
}

// LoadClaims parses claim rows. Every column in constants.ClaimColumns must be
// present; returned claims carry no tenant or pipeline state.
func LoadClaims(name string, r io.Reader) ([]*entity.Claim, error) {
	format := constants.MapExtToFormat(constants.ClaimFileExtensions, filepath.Ext(name))
	if format == "" {
		return nil, fmt.Errorf("claims %s: %w", name, ErrUnsupportedFormat)
	}
	t, err := readTable(format, r)
	if err != nil {
		return nil, fmt.Errorf("claims %s: %w", name, err)
	}
	for _, col := range constants.ClaimColumns {
		if !t.has(col) {
			return nil, common.ValidationErrorf("claims %s: missing column %s", name, col)
		}
	}

	claims := make([]*entity.Claim, 0, len(t.rows))
	for i := range t.rows {
		c, err := claimFromRow(t, i)
		if err != nil {
			// +2: header row and 1-based numbering
			return nil, common.ValidationErrorf("claims %s row %d: %v", name, i+2, err)
		}
		claims = append(claims, c)
	}
	return claims, nil
}

func claimFromRow(t *table, i int) (*entity.Claim, error) {
	id := t.cell(i, "claim_id")
	if id == "" {
		return nil, fmt.Errorf("claim_id is empty")
	}
	date, err := parseServiceDate(t.cell(i, "service_date"))
	if err != nil {
		return nil, err
	}
	paid, err := parsePaid(t.cell(i, "paid_amount_aed"))
	if err != nil {
		return nil, err
	}
	opt := func(col string) *string {
		v := t.cell(i, col)
		if v == "" {
			return nil
		}
		return &v
	}
	return &entity.Claim{
		ClaimID:        id,
		EncounterType:  opt("encounter_type"),
		ServiceDate:    date,
		NationalID:     opt("national_id"),
		MemberID:       opt("member_id"),
		FacilityID:     opt("facility_id"),
		UniqueID:       opt("unique_id"),
		DiagnosisCodes: ParseDiagnosisCodes(t.cell(i, "diagnosis_codes")),
		ServiceCode:    opt("service_code"),
		PaidAmountAED:  paid,
		ApprovalNumber: opt("approval_number"),
	}, nil
}

// ParseDiagnosisCodes accepts a JSON array, a comma separated list or a single code.
func ParseDiagnosisCodes(s string) []string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return []string{}
	case strings.HasPrefix(s, "["):
		var raw []any
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return []string{s}
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			out = append(out, fmt.Sprint(v))
		}
		return out
	case strings.Contains(s, ","):
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return []string{s}
	}
}

func parseServiceDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range serviceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	// Unformatted spreadsheet dates arrive as serial numbers.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("service_date %q is not YYYY-MM-DD", s)
}

func parsePaid(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("paid_amount_aed %q: %w", s, err)
	}
	return d, nil
}
