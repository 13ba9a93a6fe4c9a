package fit

import (
	"fmt"
	"regexp"
)

// Effects selects parameters by role.
type Effects string

const (
	// EffectsFixed keeps population-level parameters only.
	EffectsFixed Effects = "fixed"
	// EffectsAll keeps every role.
	EffectsAll Effects = "all"
)

// Filter restricts which parameters an extraction returns.
type Filter struct {
	effects    Effects
	component  Component
	parameters []*regexp.Regexp
}

// DefaultFilter keeps conditional fixed effects.
func DefaultFilter() Filter {
	return Filter{effects: EffectsFixed, component: ComponentConditional}
}

// NewFilter validates and creates a Filter. Empty effects/component fall back to the defaults.
// parameters are regular expressions; a parameter is kept if any of them matches its name.
func NewFilter(effects Effects, component Component, parameters []string) (Filter, error) {
	if effects == "" {
		effects = EffectsFixed
	}
	if effects != EffectsFixed && effects != EffectsAll {
		return Filter{}, fmt.Errorf("invalid effects %q (want fixed or all)", effects)
	}
	if component == "" {
		component = ComponentConditional
	}
	switch component {
	case ComponentConditional, ComponentZeroInflated, ComponentAll:
	default:
		return Filter{}, fmt.Errorf("invalid component %q (want conditional, zero_inflated or all)", component)
	}
	res := make([]*regexp.Regexp, 0, len(parameters))
	for _, p := range parameters {
		re, err := regexp.Compile(p)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid parameter pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return Filter{effects: effects, component: component, parameters: res}, nil
}

// Effects returns the role filter.
func (f Filter) Effects() Effects { return f.effects }

// Component returns the component filter.
func (f Filter) Component() Component { return f.component }

// Keep reports whether a parameter passes the filter.
func (f Filter) Keep(p Parameter) bool {
	if f.effects == EffectsFixed && p.Role != RoleFixed {
		return false
	}
	if f.component != ComponentAll && p.Component != f.component {
		return false
	}
	if len(f.parameters) == 0 {
		return true
	}
	for _, re := range f.parameters {
		if re.MatchString(p.Name) {
			return true
		}
	}
	return false
}

// Select returns the indexes of the parameters that pass the filter, in order.
func (f Filter) Select(params []Parameter) []int {
	var idx []int
	for i, p := range params {
		if f.Keep(p) {
			idx = append(idx, i)
		}
	}
	return idx
}
