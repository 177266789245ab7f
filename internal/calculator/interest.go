package calculator

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Basis-point and day-count denominators for simple interest.
const (
	BpsDenominator = 10000
	DaysPerYear    = 365
)

var (
	ErrInvalidInput = errors.New("invalid input")

	interestDivisor = decimal.NewFromInt(DaysPerYear * BpsDenominator)
	bpsDivisor      = decimal.NewFromInt(BpsDenominator)
)

// Interest computes simple (non-compounding) interest in asset base units:
//
//	principal × aprBps × days / (365 × 10000)
//
// truncated toward zero. The product is taken in arbitrary precision so it
// cannot overflow int64 before the division. days may be zero (zero accrual);
// principal and aprBps must be positive.
func Interest(principal, aprBps, days int64) (int64, error) {
	if principal <= 0 || aprBps <= 0 || days < 0 {
		return 0, ErrInvalidInput
	}
	num := decimal.NewFromInt(principal).
		Mul(decimal.NewFromInt(aprBps)).
		Mul(decimal.NewFromInt(days))
	q, _ := num.QuoRem(interestDivisor, 0)
	return q.IntPart(), nil
}

// Penalty computes the early-withdrawal forfeit: principal × penaltyBps / 10000,
// truncated toward zero.
func Penalty(principal, penaltyBps int64) (int64, error) {
	if principal <= 0 || penaltyBps < 0 || penaltyBps > BpsDenominator {
		return 0, ErrInvalidInput
	}
	q, _ := decimal.NewFromInt(principal).
		Mul(decimal.NewFromInt(penaltyBps)).
		QuoRem(bpsDivisor, 0)
	return q.IntPart(), nil
}

// HealthRatio returns interestBalance × 10000 / interestReserved, the
// coverage of promised interest by the pool, in basis points. With nothing
// reserved the pool covers everything, so the ratio is maximal.
func HealthRatio(interestBalance, interestReserved int64) int64 {
	if interestReserved <= 0 {
		return math.MaxInt64
	}
	q, _ := decimal.NewFromInt(interestBalance).
		Mul(bpsDivisor).
		QuoRem(decimal.NewFromInt(interestReserved), 0)
	if q.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxInt64
	}
	return q.IntPart()
}
