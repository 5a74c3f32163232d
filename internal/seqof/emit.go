package seqof

import (
	"tycodec/internal/descriptor"
	"tycodec/internal/types"
)

// Emit builds the list codec entry of the record-of, set-of or array descriptor d. dim is the
// array dimension, 0 for record-of and set-of; a RAW FIELDLENGTH owned by d fixes the count
// of the others.
func Emit(d *descriptor.Descriptor, elem string, layout descriptor.Layout, set bool, dim int64) *descriptor.ListCodec {
	l := &descriptor.ListCodec{
		Descr:   d.Name,
		Elem:    elem,
		Layout:  layout,
		Set:     set,
		Count:   dim,
		Formats: d.Formats(),
	}
	if dim == 0 && d.RAW != nil && d.Owns(types.FormatRAW) && d.RAW.FieldLength > 0 {
		l.Count = int64(d.RAW.FieldLength)
	}
	return l
}
