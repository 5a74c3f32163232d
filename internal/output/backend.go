package output

import "tycodec/internal/descriptor"

// Backend renders descriptors into accumulator buckets and assembles the final file.
type Backend interface {
	// Descriptor renders d, which must already be in acc.Table.
	Descriptor(acc *Accumulator, d *descriptor.Descriptor)
	// ListCodec renders the record-of procedures of d.
	ListCodec(acc *Accumulator, d *descriptor.Descriptor)
	// File joins the buckets into one source file.
	File(acc *Accumulator) []byte
	// Ext is the file name extension of rendered files.
	Ext() string
}
