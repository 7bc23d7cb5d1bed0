package style

import (
	"fmt"
	"strings"
)

// Separator splits an invocation name from its positional arguments in the
// configuration syntax, e.g. "resize|160|90^".
const Separator = "|"

// Invocation is a parsed macro or action: a name plus ordered string arguments.
type Invocation struct {
	Name string
	Args []string
}

// ParseInvocation parses the "name|arg1|arg2" configuration syntax. The name
// must not be empty; arguments are kept verbatim (including empty ones).
func ParseInvocation(raw string) (Invocation, error) {
	if strings.TrimSpace(raw) == "" {
		return Invocation{}, fmt.Errorf("must not be empty")
	}
	parts := strings.Split(raw, Separator)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Invocation{}, fmt.Errorf("%q must start with a name", raw)
	}
	return Invocation{Name: name, Args: parts[1:]}, nil
}

// String reserialises the invocation into the configuration syntax.
func (i Invocation) String() string {
	if len(i.Args) == 0 {
		return i.Name
	}
	return i.Name + Separator + strings.Join(i.Args, Separator)
}

// Pipeline is an ordered list of primitive actions.
type Pipeline []Invocation

// Strings returns the configuration form of every action, in order.
func (p Pipeline) Strings() []string {
	out := make([]string, len(p))
	for i, inv := range p {
		out[i] = inv.String()
	}
	return out
}

// clone returns a deep copy so callers cannot alter memoised pipelines.
func (p Pipeline) clone() Pipeline {
	out := make(Pipeline, len(p))
	for i, inv := range p {
		out[i] = Invocation{Name: inv.Name, Args: append([]string(nil), inv.Args...)}
	}
	return out
}
