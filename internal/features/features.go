// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package features defines the fixed 12-column customer feature vector that
// every model in InsurePredict consumes.
//
// Field order is the contract. Downstream code indexes a Vector by the
// constants below and never by name lookup on raw input.
package features

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column positions within a Vector.
const (
	Age = iota
	Gender
	Earnings
	ClaimAmount
	InsurancePlanAmount
	CreditScore
	MaritalStatus
	DaysPassed
	AutoInsuranceFlag
	HealthInsuranceFlag
	LifeInsuranceFlag
	PlanType

	// Count is the number of columns in a Vector.
	Count
)

var names = [Count]string{
	"Age",
	"Gender",
	"Earnings",
	"ClaimAmount",
	"InsurancePlanAmount",
	"CreditScore",
	"MaritalStatus",
	"DaysPassed",
	"AutoInsuranceFlag",
	"HealthInsuranceFlag",
	"LifeInsuranceFlag",
	"PlanType",
}

// ScaledColumns are the columns standardized by every scaler.
var ScaledColumns = []int{Age, Earnings, ClaimAmount, InsurancePlanAmount}

// InsuranceFlags are the three coverage indicator columns.
var InsuranceFlags = []int{AutoInsuranceFlag, HealthInsuranceFlag, LifeInsuranceFlag}

// Names returns the column names in contract order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Name returns the name of column i, or "" when i is out of range.
func Name(i int) string {
	if i < 0 || i >= Count {
		return ""
	}
	return names[i]
}

// ErrContractViolation is wrapped by every *ContractViolation.
var ErrContractViolation = errors.New("feature contract violation")

// ContractViolation names the first field that failed validation.
type ContractViolation struct {
	Field  string
	Reason string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ContractViolation) Unwrap() error {
	return ErrContractViolation
}

// Vector is one customer's validated feature values. It is passed by value,
// so holders cannot mutate each other's copies.
type Vector [Count]float64

// Slice returns the values as a new slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}

// Without returns the values with column skip removed. The plan
// recommenders are trained on Without(PlanType).
func (v Vector) Without(skip int) []float64 {
	out := make([]float64, 0, Count-1)
	for i, x := range v {
		if i != skip {
			out = append(out, x)
		}
	}
	return out
}

// Tier returns the current plan tier as an integer.
func (v Vector) Tier() int {
	return int(v[PlanType])
}

// HasFlag reports whether the insurance flag column i is set.
func (v Vector) HasFlag(i int) bool {
	return v[i] == 1
}

// FromFloats validates values and returns a Vector.
func FromFloats(values []float64) (Vector, error) {
	var v Vector
	if len(values) != Count {
		return v, lengthViolation(len(values))
	}
	for i, x := range values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return v, &ContractViolation{Field: names[i], Reason: "must be a finite number"}
		}
		v[i] = x
	}
	return v, v.validate()
}

// Parse coerces raw decoded JSON values (float64, json.Number or numeric
// strings) into a Vector. Extra trailing values are rejected, never dropped.
func Parse(values []interface{}) (Vector, error) {
	var v Vector
	if len(values) != Count {
		return v, lengthViolation(len(values))
	}
	floats := make([]float64, Count)
	for i, raw := range values {
		x, err := toFloat(raw)
		if err != nil {
			return v, &ContractViolation{Field: names[i], Reason: err.Error()}
		}
		floats[i] = x
	}
	return FromFloats(floats)
}

func lengthViolation(n int) *ContractViolation {
	return &ContractViolation{
		Field:  "features",
		Reason: fmt.Sprintf("expected %d values, got %d", Count, n),
	}
}

type numberLike interface {
	Float64() (float64, error)
}

func toFloat(raw interface{}) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		return 0, errors.New("must be a number, got boolean")
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", x)
		}
		return f, nil
	case numberLike:
		return x.Float64()
	case nil:
		return 0, errors.New("must be a number, got null")
	default:
		return 0, fmt.Errorf("must be a number, got %T", raw)
	}
}

func (v Vector) validate() error {
	for _, i := range InsuranceFlags {
		if v[i] != 0 && v[i] != 1 {
			return &ContractViolation{Field: names[i], Reason: fmt.Sprintf("must be 0 or 1, got %g", v[i])}
		}
	}
	switch v[PlanType] {
	case 1, 2, 3:
	default:
		return &ContractViolation{Field: names[PlanType], Reason: fmt.Sprintf("must be 1, 2 or 3, got %g", v[PlanType])}
	}
	return nil
}
