// Package descriptor is the typed intermediate form of generated codecs.
//
// The generator produces one Descriptor per type and format it needs; back ends
// render them to text. Per-format parts carry the name of the descriptor that owns
// the concrete data, so a part whose Owner differs from the enclosing descriptor
// is a shared pointer to another type's data.
package descriptor
