package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

func claim(et constants.ErrorType, paid string) *entity.Claim {
	return &entity.Claim{ErrorType: et, PaidAmountAED: decimal.RequireFromString(paid)}
}

func TestAggregateCountsAndSums(t *testing.T) {
	asOf := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := Aggregate([]*entity.Claim{
		claim(constants.NoError, "800"),
		claim(constants.TechnicalError, "12000.50"),
		claim("", "100"),
		claim("Administrative", "5"),
	}, asOf)

	if !m.AsOf.Equal(asOf) {
		t.Fatalf("as_of: got %v", m.AsOf)
	}
	if m.CountsByError[constants.TechnicalError] != 1 {
		t.Fatalf("technical count: got %d", m.CountsByError[constants.TechnicalError])
	}
	if !m.PaidByError[constants.TechnicalError].Equal(decimal.RequireFromString("12000.50")) {
		t.Fatalf("technical paid: got %s", m.PaidByError[constants.TechnicalError])
	}
	if m.CountsByError[constants.NoError] != 2 || !m.PaidByError[constants.NoError].Equal(decimal.NewFromInt(900)) {
		t.Fatalf("no error bucket: %d / %s", m.CountsByError[constants.NoError], m.PaidByError[constants.NoError])
	}
	if m.CountsByError["Administrative"] != 1 {
		t.Fatalf("unknown bucket not created: %+v", m.CountsByError)
	}
	if len(m.CountsByError) != 5 {
		t.Fatalf("got %d buckets, want 5", len(m.CountsByError))
	}
}

func TestAggregateEmptyHasZeroBuckets(t *testing.T) {
	m := Aggregate(nil, time.Now())
	for _, et := range constants.KnownErrorTypes {
		if n, ok := m.CountsByError[et]; !ok || n != 0 {
			t.Fatalf("bucket %q: got %d, present=%v", et, n, ok)
		}
		if !m.PaidByError[et].IsZero() {
			t.Fatalf("paid %q: got %s", et, m.PaidByError[et])
		}
	}
}
