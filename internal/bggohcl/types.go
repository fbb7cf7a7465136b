package bggohcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/zclconf/go-cty/cty"
)

// HCLTypeToCtyType converts an HCL type expression (e.g. `string`,
// `list(number)`, `map(string)`) into its cty.Type.
//
// The bare keyword `any` is rejected: a node property must declare something a
// flow editor can render and validate.
func HCLTypeToCtyType(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.NilType, diags
	}

	if ty.Equals(cty.DynamicPseudoType) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   "The type 'any' is not allowed for node properties. Use a concrete type such as string, number, bool, list(...) or map(...).",
			Subject:  expr.Range().Ptr(),
		})
		return cty.NilType, diags
	}

	return ty, diags
}
