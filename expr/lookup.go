package expr

import (
	"os"
	"strings"
)

// EnvPrefix marks expression names that are read from the process
// environment by the Env lookup.
const EnvPrefix = "env."

// Lookup answers the value of an expression name. Implementations must not
// mutate shared state while answering; a resolver may call them many times
// per expression.
type Lookup interface {
	Lookup(name string) (string, bool)
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(name string) (string, bool)

// Lookup calls f.
func (f LookupFunc) Lookup(name string) (string, bool) { return f(name) }

// MapLookup answers names from a fixed map.
type MapLookup map[string]string

// Lookup returns m[name].
func (m MapLookup) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Env answers "env.NAME" from the process environment and nothing else.
func Env() Lookup {
	return envLookup(os.LookupEnv)
}

func envLookup(getenv func(string) (string, bool)) Lookup {
	return LookupFunc(func(name string) (string, bool) {
		key, ok := strings.CutPrefix(name, EnvPrefix)
		if !ok || key == "" {
			return "", false
		}
		return getenv(key)
	})
}

// Chain asks each lookup in turn and returns the first answer. Nil entries
// are skipped.
func Chain(lookups ...Lookup) Lookup {
	return LookupFunc(func(name string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l.Lookup(name); ok {
				return v, true
			}
		}
		return "", false
	})
}
