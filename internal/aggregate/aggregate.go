// Package aggregate computes per-error-type claim metrics.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// Aggregate counts claims and sums paid amounts by current error type.
// The known buckets are always present; unknown labels get their own bucket.
func Aggregate(claims []*entity.Claim, asOf time.Time) entity.Metric {
	m := entity.Metric{
		AsOf:          asOf,
		CountsByError: make(map[constants.ErrorType]int, len(constants.KnownErrorTypes)),
		PaidByError:   make(map[constants.ErrorType]decimal.Decimal, len(constants.KnownErrorTypes)),
	}
	for _, et := range constants.KnownErrorTypes {
		m.CountsByError[et] = 0
		m.PaidByError[et] = decimal.Zero
	}
	for _, c := range claims {
		if c == nil {
			continue
		}
		et := constants.NormalizeErrorType(string(c.ErrorType))
		m.CountsByError[et]++
		m.PaidByError[et] = m.PaidByError[et].Add(c.PaidAmountAED)
	}
	return m
}
