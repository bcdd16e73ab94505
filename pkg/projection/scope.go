package projection

// scope is an immutable chain of names bound by enclosing constructs.
type scope struct {
	names  map[string]bool
	parent *scope
}

func (s *scope) with(names ...string) *scope {
	if len(names) == 0 {
		return s
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return &scope{names: m, parent: s}
}

func (s *scope) has(name string) bool {
	for ; s != nil; s = s.parent {
		if s.names[name] {
			return true
		}
	}
	return false
}

// DefaultGlobals are the names a template can reach without going through the instance.
var DefaultGlobals = []string{
	"Infinity", "undefined", "NaN", "isFinite", "isNaN",
	"parseFloat", "parseInt", "decodeURI", "decodeURIComponent", "encodeURI", "encodeURIComponent",
	"Math", "Number", "Date", "Array", "Object", "Boolean", "String", "RegExp", "Map", "Set", "JSON", "Intl",
	"require",
}

var listenerScope = []string{"$event", "arguments"}
