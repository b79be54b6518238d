// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return hasExt(filename, ".hcl")
}

// 📝 Parse parses the config from HCL.
//
//	prefix   = "\\"
//	patterns = {
//	  alpha    = "α"
//	  "to"     = "→"
//	}
//	exclude  = ["vendor/**"]
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Prefix   string         `hcl:"prefix,optional"`
		Patterns hcl.Expression `hcl:"patterns"`
		Exclude  []string       `hcl:"exclude,optional"`
	}

	// gohcl leaves a missing hcl.Expression field as a synthetic null
	// expression instead of reporting it
	attrs, diags := hclFile.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	if _, ok := attrs["patterns"]; !ok {
		return nil, errors.New("decoding HCL: patterns is required")
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	patterns, err := decodeHCLPatterns(hclCfg.Patterns, evalCtx)
	if err != nil {
		return nil, err
	}

	return &Config{
		Prefix:   hclCfg.Prefix,
		Patterns: patterns,
		Exclude:  hclCfg.Exclude,
	}, nil
}

// decodeHCLPatterns keeps source order for object literals. Any other
// expression is evaluated and its keys come back sorted.
func decodeHCLPatterns(expr hcl.Expression, evalCtx *hcl.EvalContext) (Patterns, error) {
	if obj, ok := expr.(*hclsyntax.ObjectConsExpr); ok {
		out := make(Patterns, 0, len(obj.Items))
		for _, item := range obj.Items {
			k, diags := item.KeyExpr.Value(evalCtx)
			if diags.HasErrors() {
				return nil, errors.Errorf("decoding HCL pattern key: %s", diags.Error())
			}
			if !isCtyString(k) {
				return nil, errors.Errorf("%s: pattern key must be a string", item.KeyExpr.Range())
			}
			v, diags := item.ValueExpr.Value(evalCtx)
			if diags.HasErrors() {
				return nil, errors.Errorf("decoding HCL replacement: %s", diags.Error())
			}
			if !isCtyString(v) {
				return nil, errors.Errorf("%s: replacement for %q must be a string", item.ValueExpr.Range(), k.AsString())
			}
			out = append(out, Entry{Pattern: k.AsString(), Replacement: v.AsString()})
		}
		return out, nil
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL patterns: %s", diags.Error())
	}
	if val.IsNull() || !(val.Type().IsObjectType() || val.Type().IsMapType()) {
		return nil, errors.Errorf("%s: patterns must be an object", expr.Range())
	}

	out := Patterns{}
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if !isCtyString(v) {
			return nil, errors.Errorf("%s: replacement for %q must be a string", expr.Range(), k.AsString())
		}
		out = append(out, Entry{Pattern: k.AsString(), Replacement: v.AsString()})
	}
	return out, nil
}

func isCtyString(v cty.Value) bool {
	return v.IsKnown() && !v.IsNull() && v.Type() == cty.String
}
