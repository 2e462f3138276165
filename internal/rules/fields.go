package rules

import (
	"sort"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// DateLayout is the layout date fields are rendered with before comparison.
const DateLayout = "2006-01-02"

type getter func(c *entity.Claim) any

// claimFields is the set of claim attributes a rule may reference.
var claimFields = map[string]getter{
	"claim_id":        func(c *entity.Claim) any { return c.ClaimID },
	"encounter_type":  func(c *entity.Claim) any { return optString(c.EncounterType) },
	"national_id":     func(c *entity.Claim) any { return optString(c.NationalID) },
	"member_id":       func(c *entity.Claim) any { return optString(c.MemberID) },
	"facility_id":     func(c *entity.Claim) any { return optString(c.FacilityID) },
	"unique_id":       func(c *entity.Claim) any { return optString(c.UniqueID) },
	"service_code":    func(c *entity.Claim) any { return optString(c.ServiceCode) },
	"approval_number": func(c *entity.Claim) any { return optString(c.ApprovalNumber) },
	"paid_amount_aed": func(c *entity.Claim) any { return c.PaidAmountAED },
	"status":          func(c *entity.Claim) any { return string(c.Status) },
	"error_type":      func(c *entity.Claim) any { return string(c.ErrorType) },
	"service_date": func(c *entity.Claim) any {
		if c.ServiceDate == nil {
			return nil
		}
		return c.ServiceDate.Format(DateLayout)
	},
	"diagnosis_codes": func(c *entity.Claim) any {
		codes := make([]any, len(c.DiagnosisCodes))
		for i, code := range c.DiagnosisCodes {
			codes[i] = code
		}
		return codes
	},
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// HasField reports whether name is a claim attribute rules may reference.
func HasField(name string) bool {
	_, ok := claimFields[name]
	return ok
}

// FieldNames returns the referenceable claim attributes, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(claimFields))
	for name := range claimFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldValue resolves field on claim. Unknown fields and unset values yield nil.
func FieldValue(claim *entity.Claim, field string) any {
	get, ok := claimFields[field]
	if !ok || claim == nil {
		return nil
	}
	return get(claim)
}
