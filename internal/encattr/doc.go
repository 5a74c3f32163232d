// Package encattr holds the parsed per-format encoding attributes attached to a type:
// RAW layout parameters, TEXT tokens, XER encoding instructions and JSON coding flags.
//
// Attribute sets are plain values owned by the type they are attached to. Cross-field
// references (lengthto, pointerto, presence, taglist) are kept by name here and turned
// into field indices by the descriptor generator.
package encattr
