package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/turbot/pipe-fittings/error_helpers"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// ParseConfig decodes the HCL in configData into a new instance of T
func ParseConfig[T any](configData *Data) (T, error) {
	var target T

	file, diags := hclsyntax.ParseConfig(configData.ConfigData, configData.Filename, configData.Pos)
	if diags.HasErrors() {
		return target, error_helpers.HclDiagsToError("failed to parse config", diags)
	}

	moreDiags := gohcl.DecodeBody(file.Body, evalContext(), &target)
	diags = append(diags, moreDiags...)
	if diags.HasErrors() {
		return target, error_helpers.HclDiagsToError("failed to parse config", diags)
	}
	return target, nil
}

// evalContext makes the env() function available to config files,
// so credentials need not be written into them
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: make(map[string]cty.Value),
		Functions: map[string]function.Function{
			"env":   envFunc,
			"upper": stdlib.UpperFunc,
			"lower": stdlib.LowerFunc,
		},
	}
}
