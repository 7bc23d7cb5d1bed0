// Package server implements the MCP (Model Context Protocol) server for image styles.
//
// The server exposes the style catalog and the derivative engine to MCP
// clients, so an assistant can inspect configured styles, preview them on real
// images and generate derivatives the same way the HTTP server does.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Style catalog:
//   - style_list: Every style with its resolved pipeline and problems
//   - style_resolve: One style, with each action validated
//
// Derivatives:
//   - derivative_path: Where a derivative lives and whether it exists
//   - derivative_generate: Resolve a request, generating on a cache miss
//   - style_preview: Apply a style in memory and return base64 image data
//
// Images:
//   - image_info: Dimensions, format, size and dominant colours
//   - image_markup: img src/srcset/sizes for a style or responsive style
//
// Source paths are relative to the images base directory and can never
// escape it.
//
// # Image Caching
//
// Every tool call reads source images from disk, so edits made while the
// server runs are visible to the next call. image_info decodes once per call
// and derives both the metadata and the palette from that decode.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The error string, or every message when a style pipeline
//     recorded several errors
//
// # Usage
//
//	srv := server.New(server.Options{Resolver: res, Executor: exec})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
