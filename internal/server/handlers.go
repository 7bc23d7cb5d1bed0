package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"

	"github.com/ironsheep/image-styles/internal/derivative"
	serrors "github.com/ironsheep/image-styles/internal/errors"
	"github.com/ironsheep/image-styles/internal/imaging"
	"github.com/ironsheep/image-styles/internal/pipeline"
	"github.com/ironsheep/image-styles/internal/resolver"
	"github.com/ironsheep/image-styles/internal/style"
)

// defaultPaletteSize is the number of colours image_info returns by default.
const defaultPaletteSize = 5

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "style_list", "derivative_generate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// When a style pipeline fails the error data lists every recorded error.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", errorData(err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Style catalog
	case "style_list":
		return s.handleStyleList()
	case "style_resolve":
		return s.handleStyleResolve(args)

	// Derivatives
	case "derivative_path":
		return s.handleDerivativePath(args)
	case "derivative_generate":
		return s.handleDerivativeGenerate(ctx, args)
	case "style_preview":
		return s.handleStylePreview(ctx, args)

	// Images
	case "image_info":
		return s.handleImageInfo(args)
	case "image_markup":
		return s.handleImageMarkup(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// errorData is the message of err, or every message when err aggregates
// several pipeline errors.
func errorData(err error) interface{} {
	errs := pipeline.AllErrors(err)
	if len(errs) <= 1 {
		return err.Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return msgs
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Tools without required arguments
// accept an empty payload.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Style Catalog Handlers ===

// StyleSummary describes one style as the tools report it.
type StyleSummary struct {
	Name    string   `json:"name"`
	Macros  []string `json:"macros,omitempty"`
	Actions []string `json:"actions"`
	Errors  []string `json:"errors,omitempty"`
	Valid   bool     `json:"valid"`
}

// summarize resolves name and validates each action against the operation
// table, reporting problems the same way a pipeline run would.
func (s *Server) summarize(catalog *style.Catalog, name string) (*StyleSummary, error) {
	r, err := catalog.Resolve(name)
	if err != nil {
		return nil, err
	}
	def, _ := catalog.Definition(name)

	sum := &StyleSummary{
		Name:    name,
		Macros:  def.Macros,
		Actions: r.Actions.Strings(),
	}
	for _, e := range r.Errors {
		sum.Errors = append(sum.Errors, e.Error())
	}
	ops := s.executor.Operations()
	for i, inv := range r.Actions {
		if _, ok := ops.Lookup(inv.Name); !ok {
			sum.Errors = append(sum.Errors, r.UnknownAction(i).Error())
		}
	}
	sum.Valid = len(sum.Errors) == 0
	return sum, nil
}

func (s *Server) handleStyleList() (interface{}, error) {
	catalog := s.resolver.Catalog()
	styles := make([]*StyleSummary, 0, catalog.Len())
	for _, name := range catalog.Names() {
		sum, err := s.summarize(catalog, name)
		if err != nil {
			return nil, err
		}
		styles = append(styles, sum)
	}
	return map[string]interface{}{
		"styles":     styles,
		"operations": s.executor.Operations().Names(),
	}, nil
}

type styleArgs struct {
	Style string `json:"style"`
}

func (s *Server) handleStyleResolve(args json.RawMessage) (interface{}, error) {
	var a styleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.summarize(s.resolver.Catalog(), a.Style)
}

// === Derivative Handlers ===

type derivativeArgs struct {
	Source string  `json:"source"`
	Style  string  `json:"style"`
	Scale  float64 `json:"scale"`
}

// DerivativePath locates a derivative without generating it.
type DerivativePath struct {
	// Query is the request form, source?style=name.
	Query string `json:"query"`

	SourcePath   string `json:"source_path"`
	SourceExists bool   `json:"source_exists"`

	// TargetPath is where request-time generation writes the derivative.
	TargetPath string `json:"target_path"`
	Exists     bool   `json:"exists"`

	// StaticPath is the batch output path relative to the site root.
	StaticPath string `json:"static_path"`

	StyleKnown bool `json:"style_known"`
}

func (s *Server) handleDerivativePath(args json.RawMessage) (interface{}, error) {
	var a derivativeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Source == "" {
		return nil, fmt.Errorf("source is required")
	}

	key := derivative.Key{Source: a.Source, Style: a.Style}
	src := derivative.SourcePath(s.baseDir, a.Source)
	target := derivative.TargetPath(a.Source, a.Style, s.staticDir)
	return &DerivativePath{
		Query:        key.Query(),
		SourcePath:   src,
		SourceExists: derivative.Exists(src),
		TargetPath:   target,
		Exists:       derivative.Exists(target),
		StaticPath:   derivative.PublicPath(key),
		StyleKnown:   s.resolver.Catalog().Has(a.Style),
	}, nil
}

// GenerateResult reports how a derivative_generate request was answered.
type GenerateResult struct {
	Outcome  resolver.Outcome `json:"outcome"`
	FilePath string           `json:"file_path"`
	MimeType string           `json:"mime_type"`
}

func (s *Server) handleDerivativeGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a derivativeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	query := url.Values{}
	if a.Style != "" {
		query.Set("style", a.Style)
	}
	resp := s.resolver.Resolve(ctx, a.Source, query)
	switch resp.Outcome {
	case resolver.PassThrough:
		return nil, fmt.Errorf("%s is not a supported source image", a.Source)
	case resolver.Failed:
		return nil, resp.Err
	}
	return &GenerateResult{
		Outcome:  resp.Outcome,
		FilePath: resp.FilePath,
		MimeType: resp.MimeType,
	}, nil
}

func (s *Server) handleStylePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a derivativeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if !s.types.Supported(a.Source) {
		return nil, fmt.Errorf("%s is not a supported source image", a.Source)
	}

	r, err := s.resolver.Catalog().Resolve(a.Style)
	if err != nil {
		return nil, err
	}
	result, err := s.executor.WithLoader(imaging.FileLoader{}).Apply(ctx, r, derivative.SourcePath(s.baseDir, a.Source))
	if err != nil {
		return nil, err
	}
	return result.Canvas.EncodeBase64(path.Ext(a.Source), a.Scale)
}

// === Image Handlers ===

type imageInfoArgs struct {
	Source  string `json:"source"`
	Palette int    `json:"palette"`
}

// ImageInfoResult is the image_info payload.
type ImageInfoResult struct {
	*imaging.ImageInfo
	MimeType string           `json:"mime_type"`
	Palette  []imaging.Swatch `json:"palette"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Palette <= 0 {
		a.Palette = defaultPaletteSize
	}
	mimeType, ok := s.types.ForPath(a.Source)
	if !ok {
		return nil, fmt.Errorf("%s is not a supported source image", a.Source)
	}

	src := derivative.SourcePath(s.baseDir, a.Source)
	if !derivative.Exists(src) {
		return nil, serrors.SourceNotFound(src)
	}
	// One decode per call: the info and the palette must describe the same
	// file contents, and edits between calls must show up.
	cache := imaging.NewImageCache()
	info, err := imaging.LoadImageInfo(cache, src)
	if err != nil {
		return nil, err
	}
	img, err := cache.Load(src)
	if err != nil {
		return nil, err
	}
	palette, err := imaging.Palette(img, a.Palette)
	if err != nil {
		return nil, err
	}
	return &ImageInfoResult{ImageInfo: info, MimeType: mimeType, Palette: palette}, nil
}

type imageMarkupArgs struct {
	Src             string `json:"src"`
	Style           string `json:"style"`
	ResponsiveStyle string `json:"responsive_style"`
	Route           string `json:"route"`
}

func (s *Server) handleImageMarkup(args json.RawMessage) (interface{}, error) {
	var a imageMarkupArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Src == "" {
		return nil, fmt.Errorf("src is required")
	}
	if a.ResponsiveStyle != "" {
		return s.markup.ResponsiveSrc(a.Src, a.ResponsiveStyle, a.Route), nil
	}
	return s.markup.ImageSrc(a.Src, a.Style, a.Route), nil
}
