package strategy

import (
	"github.com/shopspring/decimal"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// ParamKind is the type a parameter declaration expects.
type ParamKind string

const (
	ParamKindInt     ParamKind = "int"
	ParamKindDecimal ParamKind = "decimal"
	ParamKindBool    ParamKind = "bool"
)

// ParamSpec declares one strategy parameter: name, type, default, and
// (for numeric kinds) inclusive bounds. A schema is a slice of ParamSpec,
// validated once at Configure time.
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Default any
	Min     decimal.Decimal
	Max     decimal.Decimal
	HasMin  bool
	HasMax  bool
}

// ParamSchema is an ordered list of parameter declarations for one
// strategy.
type ParamSchema []ParamSpec

// Resolve validates the supplied params map against the schema, filling
// in declared defaults for any key the caller omitted, and returns a
// map safe to read without further type assertions failing.
func (schema ParamSchema) Resolve(params map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(schema))

	for _, spec := range schema {
		raw, ok := params[spec.Name]
		if !ok {
			raw = spec.Default
		}

		value, err := spec.validate(raw)
		if err != nil {
			return nil, err
		}

		resolved[spec.Name] = value
	}

	return resolved, nil
}

func (spec ParamSpec) validate(raw any) (any, error) {
	switch spec.Kind {
	case ParamKindInt:
		v, ok := raw.(int)
		if !ok {
			return nil, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "parameter %q must be an int", spec.Name)
		}

		if spec.HasMin && decimal.NewFromInt(int64(v)).LessThan(spec.Min) {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParameterOutOfBounds, "parameter %q=%d below minimum %s", spec.Name, v, spec.Min)
		}

		if spec.HasMax && decimal.NewFromInt(int64(v)).GreaterThan(spec.Max) {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParameterOutOfBounds, "parameter %q=%d above maximum %s", spec.Name, v, spec.Max)
		}

		return v, nil

	case ParamKindDecimal:
		v, err := toDecimal(raw)
		if err != nil {
			return nil, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "parameter %q must be a decimal: %s", spec.Name, err)
		}

		if spec.HasMin && v.LessThan(spec.Min) {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParameterOutOfBounds, "parameter %q=%s below minimum %s", spec.Name, v, spec.Min)
		}

		if spec.HasMax && v.GreaterThan(spec.Max) {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParameterOutOfBounds, "parameter %q=%s above maximum %s", spec.Name, v, spec.Max)
		}

		return v, nil

	case ParamKindBool:
		v, ok := raw.(bool)
		if !ok {
			return nil, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "parameter %q must be a bool", spec.Name)
		}

		return v, nil

	default:
		return nil, coreerrors.Newf(coreerrors.ErrCodeInvalidConfig, "unknown parameter kind %q for %q", spec.Kind, spec.Name)
	}
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return decimal.Zero, coreerrors.New(coreerrors.ErrCodeInvalidParameter, "unsupported decimal parameter representation")
	}
}

// MissingParameter reports ErrCodeMissingParameter for a strategy that
// requires a key absent from both the supplied params and its schema
// default.
func MissingParameter(name string) error {
	return coreerrors.Newf(coreerrors.ErrCodeMissingParameter, "missing required parameter %q", name)
}
