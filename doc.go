// Package paramblock provides:
//
// - Parameter blocks: Go structs whose Mandatory/Optional/Multiple fields
// are addressed by dotted name paths
// - A per-parser Registry of read/write/inspect functions for leaf types
// - A stable error model via Issues (dotted path, code, message)
// - Validate for mandatory slots and repeat counts
//
// Design policy:
// - Keep the block model and parser plumbing in the root package; concrete
// parsers live in markup/ and structured/, grammar writers in schema/.
// - Readers are best effort: a value that does not convert is reported as
// an Issue and skipped, everything else is kept.
//
// Typical usage:
//
//	type Rect struct {
//		Left  paramblock.Optional[int32] `param:"left"`
//		Top   paramblock.Optional[int32] `param:"top"`
//	}
//	type Button struct {
//		Label paramblock.Mandatory[string] `param:"label"`
//		Rect  paramblock.Optional[Rect]    `param:"rect"`
//	}
//
//	var b Button
//	err := markup.NewParser().Read(doc, doc.Root(), &b)
//	tree, err := structured.NewParser().Write(&b, nil)
package paramblock
