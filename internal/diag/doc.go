// Package diag carries the diagnostics produced while checking a type graph and generating
// its codecs.
//
// Passes never return semantic errors as Go errors. They report through a Reporter and keep
// going, so one run surfaces every tag collision, incompatible assignment and malformed
// attribute cross reference it can find. Codes are grouped by range:
//
//	TYP1xxx  type graph, references, recursion
//	TAG2xxx  tags and automatic tagging
//	CMP3xxx  compatibility
//	SUB4xxx  subtype constraints
//	COD5xxx  coding methods and encoding attributes
//	GEN6xxx  descriptor generation
//	IO7xxx   schema files and caches
//	OBS8xxx  timings
//
// Internal invariant violations are not diagnostics: they panic with a Fatal value which the
// driver turns into an aborted run.
package diag
