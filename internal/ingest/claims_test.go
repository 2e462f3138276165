package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/common"
)

const claimHeader = "claim_id,encounter_type,service_date,national_id,member_id,facility_id,unique_id,diagnosis_codes,service_code,paid_amount_aed,approval_number\n"

func TestLoadClaims_CSV(t *testing.T) {
	src := claimHeader +
		`C1001,INPATIENT,2024-03-01,N1,M1,F1,U1,"[""J20"",""E11""]",99213,12000,A1` + "\n" +
		`C1002,,,,,,,"E11, I10",LAB01,,` + "\n"
	claims, err := LoadClaims("claims.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadClaims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("claims = %d, want 2", len(claims))
	}

	c1 := claims[0]
	if c1.ClaimID != "C1001" || *c1.ServiceCode != "99213" || c1.PaidAmountAED.String() != "12000" {
		t.Errorf("c1 = %+v", c1)
	}
	if c1.ServiceDate == nil || !c1.ServiceDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("service date = %v", c1.ServiceDate)
	}
	if !reflect.DeepEqual(c1.DiagnosisCodes, []string{"J20", "E11"}) {
		t.Errorf("diagnosis codes = %v", c1.DiagnosisCodes)
	}

	c2 := claims[1]
	if c2.EncounterType != nil || c2.ServiceDate != nil || c2.ApprovalNumber != nil {
		t.Errorf("empty cells should be absent: %+v", c2)
	}
	if !c2.PaidAmountAED.IsZero() {
		t.Errorf("paid = %s, want 0", c2.PaidAmountAED)
	}
	if !reflect.DeepEqual(c2.DiagnosisCodes, []string{"E11", "I10"}) {
		t.Errorf("diagnosis codes = %v", c2.DiagnosisCodes)
	}
}

func TestLoadClaims_MissingColumn(t *testing.T) {
	src := "claim_id,service_code\nC1,99213\n"
	_, err := LoadClaims("claims.csv", strings.NewReader(src))
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "missing column encounter_type") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadClaims_BadRow(t *testing.T) {
	src := claimHeader + "C1,,not-a-date,,,,,,,,\n"
	_, err := LoadClaims("claims.csv", strings.NewReader(src))
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Errorf("err = %v, want row 2 error", err)
	}

	src = claimHeader + ",,,,,,,,,,\nC2,,,,,,,,,abc,\n"
	if _, err := LoadClaims("claims.csv", strings.NewReader(src)); err == nil || !strings.Contains(err.Error(), "paid_amount_aed") {
		t.Errorf("err = %v, want paid amount error", err)
	}
}

func TestLoadClaims_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := make([]any, len(constants.ClaimColumns))
	for i, c := range constants.ClaimColumns {
		header[i] = c
	}
	row := []any{"C9", "OUT", "2024-05-06", "N", "M", "F", "U", "J20", "MRI", 450.5, "A9"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &row); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	claims, err := LoadClaims("claims.xlsx", buf)
	if err != nil {
		t.Fatalf("LoadClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("claims = %d", len(claims))
	}
	c := claims[0]
	if c.ClaimID != "C9" || c.PaidAmountAED.String() != "450.5" || !reflect.DeepEqual(c.DiagnosisCodes, []string{"J20"}) {
		t.Errorf("claim = %+v", c)
	}
}

func TestLoadClaims_Unsupported(t *testing.T) {
	if _, err := LoadClaims("claims.pdf", strings.NewReader("")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestParseDiagnosisCodes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"J20", []string{"J20"}},
		{"J20, E11 ,", []string{"J20", "E11"}},
		{`["J20","E11"]`, []string{"J20", "E11"}},
		{"[broken", []string{"[broken"}},
	}
	for _, tt := range tests {
		if got := ParseDiagnosisCodes(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseDiagnosisCodes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseServiceDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-15", "2024-01-15 10:30:00", "1/15/2024", "45306"} {
		got, err := parseServiceDate(in)
		if err != nil {
			t.Errorf("parseServiceDate(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseServiceDate(%q) = %v, want %v", in, got, want)
		}
	}
}
