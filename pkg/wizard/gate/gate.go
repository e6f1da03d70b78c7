// Package gate decides whether a wizard step may be left forward.
//
// Check is the single source of truth for forward gating: the controller
// consults it before every transition and presentation layers read the
// same result to enable or disable their "Continue" affordance.
package gate

import (
	"github.com/aayaan07/quantum-kavach/pkg/wizard/eval"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

// Result explains a gate decision.
type Result struct {
	Allowed     bool     `json:"allowed"`
	Missing     []string `json:"missing,omitempty"`
	FailedRules []string `json:"failed_rules,omitempty"`
}

// Check evaluates the step's predicate: every required field non-empty and
// every rule true. A rule that fails to compile or evaluate counts as
// failed. Check never mutates vals.
func Check(step *schema.Step, vals form.Values) Result {
	if step == nil {
		return Result{}
	}
	var res Result
	for _, name := range step.Required {
		if form.IsEmpty(vals[name]) {
			res.Missing = append(res.Missing, name)
		}
	}
	env := map[string]any(vals)
	for _, rule := range step.Rules {
		ok, err := eval.EvalBool(rule.Expr, env)
		if err != nil || !ok {
			res.FailedRules = append(res.FailedRules, rule.Label())
		}
	}
	res.Allowed = len(res.Missing) == 0 && len(res.FailedRules) == 0
	return res
}

// CanAdvance reports whether forward navigation from step is permitted.
func CanAdvance(step *schema.Step, vals form.Values) bool {
	return Check(step, vals).Allowed
}
