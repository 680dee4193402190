package cmake

import "slices"

// Args accumulates cmake command-line arguments in order. It only ever
// appends: cmake applies the last -D for a key, so a later Define
// overrides an earlier one without rewriting history.
type Args struct {
	list []string
}

// NewArgs starts from a copy of base.
func NewArgs(base ...string) *Args {
	return &Args{list: slices.Clone(base)}
}

// Define appends -D<key>=<value>.
func (a *Args) Define(key, value string) *Args {
	a.list = append(a.list, "-D"+key+"="+value)
	return a
}

// DefineBool appends -D<key>=ON or -D<key>=OFF.
func (a *Args) DefineBool(key string, on bool) *Args {
	if on {
		return a.Define(key, "ON")
	}
	return a.Define(key, "OFF")
}

// Add appends raw arguments.
func (a *Args) Add(raw ...string) *Args {
	a.list = append(a.list, raw...)
	return a
}

// List returns a copy of the accumulated arguments.
func (a *Args) List() []string {
	return slices.Clone(a.list)
}
