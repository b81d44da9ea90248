package compositor

// Output is an opaque handle to a physical display plus the human-readable
// name used for configuration matching. The underlying object is whatever
// the host binding uses to identify the display (a *gdk.Monitor in
// production, any comparable value in tests).
type Output struct {
	name string
	obj  any
}

// NewOutput wraps a host display object. obj must be comparable; two Output
// values refer to the same display iff their objects compare equal.
func NewOutput(name string, obj any) *Output {
	return &Output{name: name, obj: obj}
}

// Name returns the display's descriptive name. May be empty.
func (o *Output) Name() string {
	if o == nil {
		return ""
	}
	return o.name
}

// Object returns the underlying host display object.
func (o *Output) Object() any {
	if o == nil {
		return nil
	}
	return o.obj
}

// Same reports whether both handles refer to the same physical display.
func (o *Output) Same(other *Output) bool {
	if o == nil || other == nil {
		return false
	}
	return o.obj == other.obj
}
