// Package imaging provides the image operations that style pipelines are
// built from.
//
// A pipeline runs against a Canvas: the working image plus the state earlier
// actions leave for later ones (gravity, background color, output quality).
// Each action name maps to an OpFunc in an Operations table; DefaultOperations
// registers the built-in set (resize, extent, crop, rotate, flip, flop, blur,
// sharpen, brightness, contrast, grayscale, gravity, background and quality).
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Offsets passed to extent and
// crop are signed ("+10", "-5"). Crop shifts its region from the gravity
// position. Extent pins the image's gravity point to the given canvas
// coordinate, a zero offset keeping the gravity placement, and clamps so a
// larger image never leaves the canvas.
//
// # Geometry
//
// Resize takes a width and a height argument; a flag may trail either one. "^"
// fills the box, "!" ignores the aspect ratio, ">" only shrinks and "<" only
// enlarges. An empty dimension is derived from the other one.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. A Canvas is not; each
// pipeline run owns its own. Operations tables may be extended with Register
// while in use.
//
// # Inspection
//
// LoadImageInfo, Palette and Canvas.EncodeBase64 serve the tool server: image
// metadata, dominant colors and inline previews of styled output.
package imaging
