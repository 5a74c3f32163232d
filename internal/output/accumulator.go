// Package output collects the generated text of one compilation unit and renders
// descriptors through a back end.
package output

import (
	"fmt"
	"strings"

	"tycodec/internal/descriptor"
	"tycodec/internal/encattr"
)

// Bucket is a section of the generated file.
type Bucket uint8

const (
	// BucketForward holds declarations other sections refer to.
	BucketForward Bucket = iota
	BucketPublic
	BucketPrivate
	BucketGlobal

	bucketCount
)

func (b Bucket) String() string {
	switch b {
	case BucketForward:
		return "forward"
	case BucketPublic:
		return "public"
	case BucketPrivate:
		return "private"
	case BucketGlobal:
		return "global"
	}
	return fmt.Sprintf("Bucket(%d)", b)
}

// Accumulator is the output of one compilation unit: four text buckets plus the typed
// descriptors they were rendered from.
type Accumulator struct {
	Unit  string
	Table *descriptor.Table
	buf   [bucketCount]strings.Builder
}

func New(unit string) *Accumulator {
	return &Accumulator{Unit: unit, Table: descriptor.NewTable()}
}

func (a *Accumulator) Printf(b Bucket, format string, args ...any) {
	fmt.Fprintf(&a.buf[b], format, args...)
}

func (a *Accumulator) WriteString(b Bucket, s string) {
	a.buf[b].WriteString(s)
}

func (a *Accumulator) Text(b Bucket) string {
	return a.buf[b].String()
}

// Empty reports whether nothing was written to any bucket.
func (a *Accumulator) Empty() bool {
	for i := range a.buf {
		if a.buf[i].Len() > 0 {
			return false
		}
	}
	return true
}

// Merge appends the buckets and descriptors of o.
func (a *Accumulator) Merge(o *Accumulator) {
	for i := range a.buf {
		a.buf[i].WriteString(o.buf[i].String())
	}
	for _, d := range o.Table.All() {
		a.Table.Add(d)
	}
	for _, ns := range o.Table.Namespaces {
		a.Table.Namespace(ns)
	}
}

// Snapshot is the serializable text of an accumulator.
type Snapshot struct {
	Unit        string              `msgpack:"unit"`
	Buckets     []string            `msgpack:"buckets"`
	Descriptors []string            `msgpack:"descriptors"`
	Namespaces  []encattr.Namespace `msgpack:"namespaces"`
}

func (a *Accumulator) Snapshot() Snapshot {
	s := Snapshot{Unit: a.Unit, Buckets: make([]string, bucketCount)}
	for i := range a.buf {
		s.Buckets[i] = a.buf[i].String()
	}
	for _, d := range a.Table.All() {
		s.Descriptors = append(s.Descriptors, d.Name)
	}
	s.Namespaces = append(s.Namespaces, a.Table.Namespaces...)
	return s
}

// Restore rebuilds the text buckets and namespaces of a snapshot. Descriptors are only
// kept by name.
func (s Snapshot) Restore() *Accumulator {
	a := New(s.Unit)
	for i, text := range s.Buckets {
		if i >= int(bucketCount) {
			break
		}
		a.buf[i].WriteString(text)
	}
	for _, name := range s.Descriptors {
		a.Table.Add(&descriptor.Descriptor{Name: name})
	}
	for _, ns := range s.Namespaces {
		a.Table.Namespace(ns)
	}
	return a
}
