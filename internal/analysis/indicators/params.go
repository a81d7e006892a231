package indicators

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "indicator-engine/internal/errors"
)

// ParamType is the value domain of a parameter.
type ParamType int

const (
	IntParam ParamType = iota
	FloatParam
	ChoiceParam
	BoolParam
)

func (t ParamType) String() string {
	switch t {
	case IntParam:
		return "int"
	case FloatParam:
		return "float"
	case ChoiceParam:
		return "choice"
	case BoolParam:
		return "bool"
	default:
		return fmt.Sprintf("param(%d)", int(t))
	}
}

// ParamSpec declares one optional parameter of an indicator.
type ParamSpec struct {
	Name    string
	Type    ParamType
	Min     float64
	Max     float64
	Choices []string
	Default float64
}

// IntSpec declares an integer parameter in [min, max].
func IntSpec(name string, def, min, max int) ParamSpec {
	return ParamSpec{Name: name, Type: IntParam, Min: float64(min), Max: float64(max), Default: float64(def)}
}

// FloatSpec declares a float parameter in [min, max].
func FloatSpec(name string, def, min, max float64) ParamSpec {
	return ParamSpec{Name: name, Type: FloatParam, Min: min, Max: max, Default: def}
}

// ChoiceSpec declares an enumerated parameter; def indexes choices.
func ChoiceSpec(name string, def int, choices ...string) ParamSpec {
	return ParamSpec{Name: name, Type: ChoiceParam, Min: 0, Max: float64(len(choices) - 1), Choices: choices, Default: float64(def)}
}

// BoolSpec declares a boolean parameter.
func BoolSpec(name string, def bool) ParamSpec {
	d := 0.0
	if def {
		d = 1
	}
	return ParamSpec{Name: name, Type: BoolParam, Min: 0, Max: 1, Default: d}
}

func (s ParamSpec) validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.ErrParameterOutOfRange
	}
	switch s.Type {
	case IntParam, ChoiceParam:
		if v != math.Trunc(v) {
			return apperrors.ErrParameterOutOfRange
		}
	case BoolParam:
		if v != 0 && v != 1 {
			return apperrors.ErrParameterOutOfRange
		}
	}
	if v < s.Min || v > s.Max {
		return apperrors.ErrParameterOutOfRange
	}
	return nil
}

// Params is the fixed-arity parameter set of one indicator kind. Values are
// validated when set, so a constructed indicator never sees an out-of-range
// parameter.
type Params struct {
	owner  string
	specs  []ParamSpec
	values []float64
}

// NewParams returns a parameter set holding the defaults of specs.
func NewParams(owner string, specs []ParamSpec) Params {
	values := make([]float64, len(specs))
	for i, s := range specs {
		values[i] = s.Default
	}
	return Params{owner: owner, specs: specs, values: values}
}

// Len returns the declared parameter count.
func (p Params) Len() int {
	return len(p.specs)
}

// Specs returns the parameter declarations.
func (p Params) Specs() []ParamSpec {
	return p.specs
}

// Clone returns an independent copy of the set. Indicator.Params returns a
// clone, so changing it never reaches a constructed instance.
func (p Params) Clone() Params {
	values := make([]float64, len(p.values))
	copy(values, p.values)
	return Params{owner: p.owner, specs: p.specs, values: values}
}

func (p Params) indexError(i int) error {
	return apperrors.NewParameterError(p.owner, i, "", nil, apperrors.ErrInvalidParameterIndex)
}

// Set assigns parameter i after validating it.
func (p Params) Set(i int, v float64) error {
	if i < 0 || i >= len(p.specs) {
		return p.indexError(i)
	}
	if err := p.specs[i].validate(v); err != nil {
		return apperrors.NewParameterError(p.owner, i, p.specs[i].Name, v, err)
	}
	p.values[i] = v
	return nil
}

// SetInt assigns an integer parameter.
func (p Params) SetInt(i, v int) error {
	return p.Set(i, float64(v))
}

// SetBool assigns a boolean parameter.
func (p Params) SetBool(i int, v bool) error {
	if v {
		return p.Set(i, 1)
	}
	return p.Set(i, 0)
}

// SetChoice assigns an enumerated parameter by its label.
func (p Params) SetChoice(i int, label string) error {
	if i < 0 || i >= len(p.specs) {
		return p.indexError(i)
	}
	s := p.specs[i]
	for idx, c := range s.Choices {
		if strings.EqualFold(c, label) {
			return p.Set(i, float64(idx))
		}
	}
	return apperrors.NewParameterError(p.owner, i, s.Name, label, apperrors.ErrParameterOutOfRange)
}

// Index returns the position of the named parameter.
func (p Params) Index(name string) (int, error) {
	for i, s := range p.specs {
		if strings.EqualFold(s.Name, name) {
			return i, nil
		}
	}
	return -1, apperrors.NewParameterError(p.owner, -1, name, nil, apperrors.ErrInvalidParameterIndex)
}

// SetByName parses raw according to the named parameter's type and assigns it.
func (p Params) SetByName(name, raw string) error {
	i, err := p.Index(name)
	if err != nil {
		return err
	}
	s := p.specs[i]
	switch s.Type {
	case ChoiceParam:
		return p.SetChoice(i, raw)
	case BoolParam:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewParameterError(p.owner, i, s.Name, raw, apperrors.ErrParameterOutOfRange)
		}
		return p.SetBool(i, b)
	default:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return apperrors.NewParameterError(p.owner, i, s.Name, raw, apperrors.ErrParameterOutOfRange)
		}
		return p.Set(i, v)
	}
}

// Get returns the raw value of parameter i.
func (p Params) Get(i int) (float64, error) {
	if i < 0 || i >= len(p.values) {
		return 0, p.indexError(i)
	}
	return p.values[i], nil
}

// Int returns parameter i as an int. i must be within arity.
func (p Params) Int(i int) int {
	return int(p.values[i])
}

// Float returns parameter i. i must be within arity.
func (p Params) Float(i int) float64 {
	return p.values[i]
}

// Bool returns parameter i as a bool. i must be within arity.
func (p Params) Bool(i int) bool {
	return p.values[i] != 0
}

// Choice returns the label selected for parameter i. i must be within arity.
func (p Params) Choice(i int) string {
	return p.specs[i].Choices[int(p.values[i])]
}

// String renders the set as name=value pairs.
func (p Params) String() string {
	parts := make([]string, len(p.specs))
	for i, s := range p.specs {
		switch s.Type {
		case ChoiceParam:
			parts[i] = s.Name + "=" + p.Choice(i)
		case BoolParam:
			parts[i] = fmt.Sprintf("%s=%t", s.Name, p.Bool(i))
		default:
			parts[i] = s.Name + "=" + strconv.FormatFloat(p.values[i], 'g', -1, 64)
		}
	}
	return strings.Join(parts, ",")
}
