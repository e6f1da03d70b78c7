package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with portal tools registered.
func NewServer(version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"quantum-kavach",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("portal/wizards",
			mcp.WithDescription("List the built-in wizards and the dashboards that offer them"),
		),
		h.HandleWizards,
	)

	s.AddTool(
		mcp.NewTool("portal/start",
			mcp.WithDescription("Start a wizard session and return its session_id"),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Wizard kind: auth, incident or family")),
			mcp.WithString("role", mcp.Description("Declared role: serving, veteran or family")),
		),
		h.HandleStart,
	)

	s.AddTool(
		mcp.NewTool("portal/set",
			mcp.WithDescription("Set a form field on the session"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by portal/start")),
			mcp.WithString("field", mcp.Required(), mcp.Description("Field name")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Field value; booleans as true/false")),
		),
		h.HandleSet,
	)

	s.AddTool(
		mcp.NewTool("portal/attach",
			mcp.WithDescription("Attach an evidence item; starts evidence analysis"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
			mcp.WithString("name", mcp.Required(), mcp.Description("File name of the evidence")),
			mcp.WithNumber("size", mcp.Description("Size in bytes")),
			mcp.WithString("mime", mcp.Description("MIME type; guessed from the name when empty")),
		),
		h.HandleAttach,
	)

	s.AddTool(
		mcp.NewTool("portal/remove",
			mcp.WithDescription("Remove an attached evidence item by index"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based evidence index")),
		),
		h.HandleRemove,
	)

	s.AddTool(
		mcp.NewTool("portal/next",
			mcp.WithDescription("Advance to the next step, or submit on the last step"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		),
		h.HandleNext,
	)

	s.AddTool(
		mcp.NewTool("portal/back",
			mcp.WithDescription("Go back one step; on the first step this abandons the session"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		),
		h.HandleBack,
	)

	s.AddTool(
		mcp.NewTool("portal/cancel",
			mcp.WithDescription("Abandon the session from any step"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		),
		h.HandleCancel,
	)

	s.AddTool(
		mcp.NewTool("portal/status",
			mcp.WithDescription("Show the session's step, gate result, enrichment and events"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		),
		h.HandleStatus,
	)

	s.AddTool(
		mcp.NewTool("portal/schema",
			mcp.WithDescription("Export the wizard/v0 definition JSON Schema"),
		),
		h.HandleSchema,
	)

	return s
}
