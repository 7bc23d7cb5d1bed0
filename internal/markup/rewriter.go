// Package markup computes img attributes for styled images and feeds the
// generation registry while pages are rendered.
//
// In Request mode a styled image keeps its source path and carries the style
// as a query parameter, to be answered by the resolver. In Static mode the
// attributes point at the files the batch generator will write below
// image-styles/, relative to the page, and every referenced derivative is
// added to the registry.
package markup

import (
	"log/slog"
	"strings"

	"github.com/ironsheep/image-styles/internal/derivative"
	"github.com/ironsheep/image-styles/internal/logfields"
	"github.com/ironsheep/image-styles/internal/registry"
)

// Mode selects how attributes are rewritten.
type Mode int

const (
	Request Mode = iota
	Static
)

// ResponsiveStyle maps image styles to srcset descriptors, e.g.
// Srcset "small 160w, medium 320w".
type ResponsiveStyle struct {
	Srcset string `yaml:"srcset" json:"srcset"`
	Sizes  string `yaml:"sizes,omitempty" json:"sizes,omitempty"`
}

// Attributes are the img attributes to render. Empty values are omitted.
type Attributes struct {
	Src    string `json:"src"`
	Srcset string `json:"srcset,omitempty"`
	Sizes  string `json:"sizes,omitempty"`
}

// Styles reports which image styles exist.
type Styles interface {
	Has(name string) bool
}

// Options configures a Rewriter.
type Options struct {
	Styles     Styles
	Responsive map[string]ResponsiveStyle
	Mode       Mode

	// Registry receives the derivatives referenced in Static mode. It may be
	// nil when nothing is being generated.
	Registry *registry.Registry
	Logger   *slog.Logger
}

// Rewriter rewrites image sources. It is safe for concurrent use when the
// registry is.
type Rewriter struct {
	styles     Styles
	responsive map[string]ResponsiveStyle
	mode       Mode
	registry   *registry.Registry
	logger     *slog.Logger
}

// New creates a Rewriter.
func New(opts Options) *Rewriter {
	r := &Rewriter{
		styles:     opts.Styles,
		responsive: opts.Responsive,
		mode:       opts.Mode,
		registry:   opts.Registry,
		logger:     opts.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// ImageSrc returns the attributes for src rendered with imageStyle on the
// page at routePath. When imageStyle is empty the style query parameter of
// src, if any, is used. An unknown style falls back to the unstyled image.
func (r *Rewriter) ImageSrc(src, imageStyle, routePath string) Attributes {
	key, _ := derivative.ParseQuery(src)
	if imageStyle != "" {
		key.Style = imageStyle
	}
	if key.Style != "" && !r.validStyle(key.Style, "") {
		key.Style = ""
	}

	if r.mode == Request {
		return Attributes{Src: key.Query()}
	}

	r.register(key)
	return Attributes{Src: RelativeBase(routePath) + derivative.PublicPath(key)}
}

// ResponsiveSrc returns src, srcset and sizes for src rendered with the named
// responsive style. When the responsive style is unknown or invalid only src
// is set, pointing at the unstyled image.
func (r *Rewriter) ResponsiveSrc(src, responsiveStyle, routePath string) Attributes {
	key, _ := derivative.ParseQuery(src)
	key.Style = ""

	var attrs Attributes
	base := ""
	if r.mode == Request {
		attrs.Src = key.Source
	} else {
		base = RelativeBase(routePath)
		attrs.Src = base + derivative.PublicPath(key)
		r.register(key)
	}

	def, ok := r.validResponsive(responsiveStyle)
	if !ok {
		return attrs
	}

	candidates := parseSrcset(def.Srcset)
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		styled := derivative.Key{Source: key.Source, Style: c.style}
		var url string
		if r.mode == Request {
			url = styled.Query()
		} else {
			url = base + derivative.PublicPath(styled)
			r.register(styled)
		}
		if c.descriptor != "" {
			url += " " + c.descriptor
		}
		parts = append(parts, url)
	}
	attrs.Srcset = strings.Join(parts, ", ")
	attrs.Sizes = def.Sizes
	return attrs
}

func (r *Rewriter) register(key derivative.Key) {
	if r.registry != nil {
		r.registry.AddKey(key)
	}
}

func (r *Rewriter) validStyle(name, context string) bool {
	if r.styles != nil && r.styles.Has(name) {
		return true
	}
	attrs := []any{logfields.Style(name)}
	if context != "" {
		attrs = append(attrs, slog.String("responsive_style", context))
	}
	r.logger.Warn("Invalid image style", attrs...)
	return false
}

func (r *Rewriter) validResponsive(name string) (ResponsiveStyle, bool) {
	def, ok := r.responsive[name]
	if !ok {
		r.logger.Warn("Invalid responsive style", slog.String("responsive_style", name))
		return def, false
	}
	candidates := parseSrcset(def.Srcset)
	if len(candidates) == 0 {
		r.logger.Warn("Responsive style is missing a srcset", slog.String("responsive_style", name))
		return def, false
	}
	valid := true
	for _, c := range candidates {
		if !r.validStyle(c.style, name) {
			valid = false
		}
	}
	return def, valid
}

type candidate struct {
	style      string
	descriptor string
}

// parseSrcset splits "small 160w, medium 320w" into its candidates.
func parseSrcset(srcset string) []candidate {
	var out []candidate
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		c := candidate{style: fields[0]}
		if len(fields) > 1 {
			c.descriptor = fields[1]
		}
		out = append(out, c)
	}
	return out
}

// RelativeBase returns the prefix leading from the page at routePath back to
// the site root: "" for "/", "../" for "/a", "../../" for "/a/b".
func RelativeBase(routePath string) string {
	if routePath == "" || routePath == "/" {
		return ""
	}
	depth := len(strings.Split(strings.TrimPrefix(routePath, "/"), "/"))
	return strings.Repeat("../", depth)
}
