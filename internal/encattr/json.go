package encattr

// SchemaExtension is a user key/value pair copied verbatim into the schema.
type SchemaExtension struct {
	Key, Value string
}

// JSON is a parsed JSON attribute set.
type JSON struct {
	OmitAsNull bool
	Alias      string
	AsValue    bool
	// Default is the JSON text of the default value, empty when absent.
	Default         string
	MetainfoUnbound bool
	Extensions      []SchemaExtension
}

// Empty reports whether no attribute is set.
func (j *JSON) Empty() bool {
	return j == nil || (!j.OmitAsNull && j.Alias == "" && !j.AsValue && j.Default == "" &&
		!j.MetainfoUnbound && len(j.Extensions) == 0)
}

func (j *JSON) Clone() *JSON {
	if j == nil {
		return nil
	}
	out := *j
	out.Extensions = append([]SchemaExtension(nil), j.Extensions...)
	return &out
}
