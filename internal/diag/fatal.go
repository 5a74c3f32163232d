package diag

import "fmt"

// Fatal is the panic payload for internal invariant violations: a payload read under the
// wrong category, an unreachable switch arm. It never comes from valid input.
type Fatal struct {
	Where string
	Msg   string
}

func (f Fatal) Error() string {
	return fmt.Sprintf("internal error in %s: %s", f.Where, f.Msg)
}

// Fatalf panics with a Fatal value.
func Fatalf(where, format string, args ...any) {
	panic(Fatal{Where: where, Msg: fmt.Sprintf(format, args...)})
}

// RecoverFatal converts a Fatal panic into an error and re-panics anything else.
// Use it as `defer diag.RecoverFatal(&err)`.
func RecoverFatal(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if f, ok := r.(Fatal); ok {
		*err = f
		return
	}
	panic(r)
}
