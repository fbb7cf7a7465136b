// Package bggohcl holds small HCL helpers shared by the manifest decoder.
package bggohcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// FindUniqueBlock searches a slice of blocks for all blocks of a given name.
// It returns a diagnostic error if more than one block of that name is found.
// If no block is found, it returns nil.
func FindUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks.OfType(name) {
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"" + name + "\" block",
				Detail:   "Only one \"" + name + "\" block is allowed per manifest.",
				Subject:  &block.DefRange,
			})
			continue
		}
		found = block
	}

	return found, diags
}

// RequireUniqueBlock is FindUniqueBlock for blocks that must be present.
// body is used to locate the diagnostic when the block is missing.
func RequireUniqueBlock(body hcl.Body, blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	found, diags := FindUniqueBlock(blocks, name)
	if found == nil && !diags.HasErrors() {
		missing := body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing \"" + name + "\" block",
			Detail:   "Exactly one \"" + name + "\" block is required.",
			Subject:  &missing,
		})
	}
	return found, diags
}

// DecodeStringAttr decodes an optional string attribute from body content.
// It returns "" when the attribute is absent.
func DecodeStringAttr(content *hcl.BodyContent, name string) (string, hcl.Diagnostics) {
	attr, exists := content.Attributes[name]
	if !exists {
		return "", nil
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() {
		return "", diags
	}
	if !val.Type().Equals(cty.String) || !val.IsKnown() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid attribute value",
			Detail:   "The '" + name + "' attribute must be a string.",
			Subject:  attr.Expr.Range().Ptr(),
		})
		return "", diags
	}
	return val.AsString(), diags
}
