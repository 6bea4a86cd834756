package structured

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ReadHCL fills block from an HCL native-syntax body. Attributes and blocks
// are visited in source order. A block becomes a nested map under its type
// name, with its first label, if any, stored under "name"; repeated blocks
// of the same type form an array.
//
// ctx may be nil; it supplies variables and functions to expressions.
func (p *Parser) ReadHCL(src []byte, filename string, ctx *hcl.EvalContext, block any) error {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return fmt.Errorf("structured: hcl: %w", diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("structured: hcl: unexpected body type %T", file.Body)
	}
	tree, diags := FromHCL(body, ctx)
	if diags.HasErrors() {
		return fmt.Errorf("structured: hcl: %w", diags)
	}
	return p.Read(tree, block)
}

// FromHCL evaluates body into the tree Read accepts.
func FromHCL(body *hclsyntax.Body, ctx *hcl.EvalContext) (*Object, hcl.Diagnostics) {
	return hclObject(body, ctx, nil)
}

func hclObject(body *hclsyntax.Body, ctx *hcl.EvalContext, labels []string) (*Object, hcl.Diagnostics) {
	type item struct {
		pos  int
		attr *hclsyntax.Attribute
		blk  *hclsyntax.Block
	}
	items := make([]item, 0, len(body.Attributes)+len(body.Blocks))
	for _, a := range body.Attributes {
		items = append(items, item{pos: a.SrcRange.Start.Byte, attr: a})
	}
	for _, b := range body.Blocks {
		items = append(items, item{pos: b.TypeRange.Start.Byte, blk: b})
	}
	slices.SortFunc(items, func(a, b item) int { return a.pos - b.pos })

	var diags hcl.Diagnostics
	o := NewObject()
	if len(labels) > 0 {
		o.Set("name", labels[0])
	}
	for _, it := range items {
		if it.attr != nil {
			v, d := it.attr.Expr.Value(ctx)
			diags = append(diags, d...)
			if !d.HasErrors() {
				o.Set(it.attr.Name, FromCty(v))
			}
			continue
		}
		c, d := hclObject(it.blk.Body, ctx, it.blk.Labels)
		diags = append(diags, d...)
		o.Add(it.blk.Type, c)
	}
	return o, diags
}

// FromCty converts a cty value into the tree Read accepts. Null and unknown
// values become nil; whole numbers become int64.
func FromCty(v cty.Value) any {
	v, _ = v.Unmark()
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case t.IsListType(), t.IsTupleType(), t.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, FromCty(ev))
		}
		return out
	case t.IsMapType(), t.IsObjectType():
		o := NewObject()
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			o.Set(k.AsString(), FromCty(ev))
		}
		return o
	}
	return nil
}
