// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/nodereg/internal/bggohcl"
	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// FileName is the manifest file expected at the root of every package.
const FileName = "nodes.hcl"

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "module", LabelNames: []string{"name"}},
		{Type: "node", LabelNames: []string{"name"}},
	},
}

var moduleBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "version"},
		{Name: "description"},
	},
}

var nodeBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "label"},
		{Name: "category"},
		// `handler` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "handler"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "property", LabelNames: []string{"name"}},
	},
}

var propertyBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "description"},
		{Name: "default"},
	},
}

// Load reads dir/nodes.hcl and decodes it. The returned module has Path set
// to dir and every node type starts out disabled.
func Load(ctx context.Context, dir string) (model.Module, error) {
	logger := ctxlog.FromContext(ctx)
	filePath := filepath.Join(dir, FileName)
	logger.Debug("Loading package manifest.", "file_path", filePath)

	src, err := os.ReadFile(filePath)
	if err != nil {
		return model.Module{}, fmt.Errorf("failed to read manifest %s: %w", filePath, err)
	}

	mod, diags := Parse(src, filePath)
	if diags.HasErrors() {
		return model.Module{}, fmt.Errorf("failed to parse manifest %s: %w", filePath, diags)
	}
	mod.Path = dir

	logger.Debug("Package manifest loaded.", "module", mod.Name, "node_types", len(mod.NodeTypes))
	return mod, nil
}

// Parse decodes manifest source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (model.Module, hcl.Diagnostics) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return model.Module{}, diags
	}

	content, contentDiags := file.Body.Content(rootSchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return model.Module{}, diags
	}

	moduleBlock, blockDiags := bggohcl.RequireUniqueBlock(file.Body, content.Blocks, "module")
	diags = append(diags, blockDiags...)
	if blockDiags.HasErrors() {
		return model.Module{}, diags
	}

	mod, modDiags := parseModuleBlock(moduleBlock)
	diags = append(diags, modDiags...)

	seen := make(map[string]*hcl.Block)
	for _, block := range content.Blocks.OfType("node") {
		name := block.Labels[0]
		if strings.Contains(name, "/") {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid node name",
				Detail:   fmt.Sprintf("Node name '%s' must not contain '/'.", name),
				Subject:  &block.LabelRanges[0],
			})
			continue
		}
		if prev, exists := seen[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate node definition",
				Detail:   fmt.Sprintf("A node named '%s' was already defined at %s.", name, prev.DefRange),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[name] = block

		nt, ntDiags := parseNodeBlock(block)
		diags = append(diags, ntDiags...)
		if ntDiags.HasErrors() {
			continue
		}
		nt.Module = mod.Name
		mod.NodeTypes = append(mod.NodeTypes, nt)
	}

	if diags.HasErrors() {
		return model.Module{}, diags
	}
	return mod, diags
}

func parseModuleBlock(block *hcl.Block) (model.Module, hcl.Diagnostics) {
	mod := model.Module{Name: block.Labels[0]}

	content, diags := block.Body.Content(moduleBodySchema)
	if diags.HasErrors() {
		return mod, diags
	}

	var attrDiags hcl.Diagnostics
	mod.Version, attrDiags = bggohcl.DecodeStringAttr(content, "version")
	diags = append(diags, attrDiags...)
	mod.Description, attrDiags = bggohcl.DecodeStringAttr(content, "description")
	diags = append(diags, attrDiags...)

	return mod, diags
}

func parseNodeBlock(block *hcl.Block) (model.NodeType, hcl.Diagnostics) {
	nt := model.NodeType{Name: block.Labels[0]}

	content, diags := block.Body.Content(nodeBodySchema)
	if diags.HasErrors() {
		return nt, diags
	}

	if _, exists := content.Attributes["handler"]; !exists {
		missing := block.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'handler' attribute",
			Detail:   fmt.Sprintf("Node '%s' must name the Go handler that implements it.", nt.Name),
			Subject:  &missing,
		})
		return nt, diags
	}

	var attrDiags hcl.Diagnostics
	nt.Handler, attrDiags = bggohcl.DecodeStringAttr(content, "handler")
	diags = append(diags, attrDiags...)
	nt.Label, attrDiags = bggohcl.DecodeStringAttr(content, "label")
	diags = append(diags, attrDiags...)
	nt.Category, attrDiags = bggohcl.DecodeStringAttr(content, "category")
	diags = append(diags, attrDiags...)

	props, propDiags := parseProperties(content.Blocks.OfType("property"))
	diags = append(diags, propDiags...)
	nt.Properties = props

	return nt, diags
}

func parseProperties(blocks hcl.Blocks) ([]model.Property, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var props []model.Property
	seen := make(map[string]struct{})

	for _, block := range blocks {
		name := block.Labels[0]
		if _, exists := seen[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate property definition",
				Detail:   fmt.Sprintf("A property named '%s' has already been defined.", name),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[name] = struct{}{}

		content, contentDiags := block.Body.Content(propertyBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		typeAttr, exists := content.Attributes["type"]
		if !exists {
			missing := block.Body.MissingItemRange()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing 'type' attribute",
				Detail:   "The 'type' attribute is required for all property blocks.",
				Subject:  &missing,
			})
			continue
		}

		ty, typeDiags := bggohcl.HCLTypeToCtyType(typeAttr.Expr)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}

		prop := model.Property{Name: name, Type: ty}

		var descDiags hcl.Diagnostics
		prop.Description, descDiags = bggohcl.DecodeStringAttr(content, "description")
		diags = append(diags, descDiags...)

		if defaultAttr, exists := content.Attributes["default"]; exists {
			// Defaults must be literal values, so no evaluation context.
			val, valDiags := defaultAttr.Expr.Value(nil)
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				continue
			}
			converted, err := convert.Convert(val, ty)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid default value type",
					Detail:   fmt.Sprintf("The default value for '%s' is not compatible with its type, '%s': %s.", name, ty.FriendlyName(), err),
					Subject:  defaultAttr.Expr.Range().Ptr(),
				})
				continue
			}
			prop.Default = ptr(converted)
		}

		props = append(props, prop)
	}

	return props, diags
}

func ptr(v cty.Value) *cty.Value { return &v }
