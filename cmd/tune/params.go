package main

import (
	"github.com/pthm-cable/herd/config"
)

// ParamSpec defines a single optimizable coefficient.
type ParamSpec struct {
	Key     string  // coefficient table key
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
}

// ParamVector holds the set of all optimizable coefficients.
type ParamVector struct {
	Specs []ParamSpec
}

// Coefficient bounds shared by every weight.
const (
	coefficientMin = 0.0
	coefficientMax = 4.0
)

// NewParamVector creates one spec per coefficient key, starting from base.
func NewParamVector(base *config.ForceController) *ParamVector {
	values := base.Map()
	pv := &ParamVector{}
	for _, key := range config.CoefficientKeys {
		pv.Specs = append(pv.Specs, ParamSpec{
			Key:     key,
			Min:     coefficientMin,
			Max:     coefficientMax,
			Default: values[key],
		})
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values, clamped into bounds.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return pv.Clamp(v)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// Coefficients builds a coefficient table from clamped parameter values.
func (pv *ParamVector) Coefficients(values []float64) *config.ForceController {
	clamped := pv.Clamp(values)
	m := make(map[string]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		m[spec.Key] = clamped[i]
	}
	fc, err := config.FromMap(m)
	if err != nil {
		// Specs are built from CoefficientKeys, so every key is present
		panic(err)
	}
	return fc
}
