package style

import (
	"sort"

	serrors "github.com/ironsheep/image-styles/internal/errors"
)

// Definition is the raw configuration of a style. Macro-derived actions run
// before the explicit actions.
type Definition struct {
	Macros  []string `yaml:"macros,omitempty" json:"macros,omitempty"`
	Actions []string `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// Resolved is the fully expanded pipeline of one style, together with every
// problem found while expanding it. Expansion problems do not stop expansion:
// the executor reports them alongside its own action validation errors.
type Resolved struct {
	Style   string
	Actions Pipeline
	Errors  []error
	// Origins[i] names the configuration entry Actions[i] came from.
	Origins []Origin
}

// Origin locates a resolved action in the style definition. Exactly one of
// Macro and Action is set, both 1-based positions in the configured lists.
type Origin struct {
	Macro  int
	Action int
}

// UnknownAction reports that the i-th resolved action names no operation,
// pointing at the macro or configured action it came from.
func (r *Resolved) UnknownAction(i int) error {
	name := r.Actions[i].Name
	if i < len(r.Origins) {
		if o := r.Origins[i]; o.Macro > 0 {
			return serrors.InvalidMacro(r.Style, o.Macro, "produced "+name+", which is not a valid action")
		} else if o.Action > 0 {
			return serrors.InvalidAction(r.Style, o.Action, name+" is not a valid action")
		}
	}
	return serrors.InvalidAction(r.Style, i+1, name+" is not a valid action")
}

// Catalog holds named style definitions and their expanded pipelines.
//
// Every style is expanded once, when the catalog is built. Raw definitions are
// never modified and Resolve hands out copies, so a Catalog is safe for
// concurrent use and resolving a style repeatedly always yields the same
// pipeline.
type Catalog struct {
	defs     map[string]Definition
	resolved map[string]*Resolved
}

// NewCatalog builds a catalog from defs, expanding macros with the given
// registry (DefaultMacros when nil).
func NewCatalog(defs map[string]Definition, macros *Macros) *Catalog {
	if macros == nil {
		macros = DefaultMacros()
	}
	c := &Catalog{
		defs:     make(map[string]Definition, len(defs)),
		resolved: make(map[string]*Resolved, len(defs)),
	}
	for name, def := range defs {
		c.defs[name] = Definition{
			Macros:  append([]string(nil), def.Macros...),
			Actions: append([]string(nil), def.Actions...),
		}
		c.resolved[name] = expand(name, def, macros)
	}
	return c
}

// expand turns a definition into its resolved pipeline.
func expand(name string, def Definition, macros *Macros) *Resolved {
	r := &Resolved{Style: name}

	var fromMacros Pipeline
	for i, raw := range def.Macros {
		inv, err := ParseInvocation(raw)
		if err != nil {
			r.Errors = append(r.Errors, serrors.InvalidMacro(name, i+1, err.Error()))
			continue
		}
		fn, ok := macros.Lookup(inv.Name)
		if !ok {
			r.Errors = append(r.Errors, serrors.InvalidMacro(name, i+1, inv.Name+" is not a valid macro"))
			continue
		}
		actions, err := fn(inv.Args...)
		if err != nil {
			r.Errors = append(r.Errors, serrors.InvalidMacro(name, i+1, err.Error()))
			continue
		}
		for _, a := range actions {
			act, err := ParseInvocation(a)
			if err != nil {
				r.Errors = append(r.Errors, serrors.InvalidMacro(name, i+1, "produced an invalid action: "+err.Error()))
				continue
			}
			fromMacros = append(fromMacros, act)
			r.Origins = append(r.Origins, Origin{Macro: i + 1})
		}
	}

	r.Actions = fromMacros
	for i, raw := range def.Actions {
		inv, err := ParseInvocation(raw)
		if err != nil {
			r.Errors = append(r.Errors, serrors.InvalidAction(name, i+1, err.Error()))
			continue
		}
		r.Actions = append(r.Actions, inv)
		r.Origins = append(r.Origins, Origin{Action: i + 1})
	}
	return r
}

// Resolve returns the expanded pipeline of the named style. An unknown name
// yields an unknown_style error.
func (c *Catalog) Resolve(name string) (*Resolved, error) {
	r, ok := c.resolved[name]
	if !ok {
		return nil, serrors.UnknownStyle(name)
	}
	return &Resolved{
		Style:   r.Style,
		Actions: r.Actions.clone(),
		Errors:  append([]error(nil), r.Errors...),
		Origins: append([]Origin(nil), r.Origins...),
	}, nil
}

// Has reports whether the catalog defines name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.defs[name]
	return ok
}

// Definition returns a copy of the raw definition of name.
func (c *Catalog) Definition(name string) (Definition, bool) {
	def, ok := c.defs[name]
	if !ok {
		return Definition{}, false
	}
	return Definition{
		Macros:  append([]string(nil), def.Macros...),
		Actions: append([]string(nil), def.Actions...),
	}, true
}

// Names returns every style name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Problems returns the expansion errors of every style that has any.
func (c *Catalog) Problems() map[string][]error {
	out := make(map[string][]error)
	for name, r := range c.resolved {
		if len(r.Errors) > 0 {
			out[name] = append([]error(nil), r.Errors...)
		}
	}
	return out
}

// Len returns the number of styles.
func (c *Catalog) Len() int { return len(c.defs) }
