// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz lookups for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/fedtag"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/nodeinfo"
	"github.com/starford/ansuz/internal/resolver"
	"github.com/starford/ansuz/internal/webfinger"
)

// Store is the subset of the user directory the tools read.
type Store interface {
	resolver.UserFinder
	AllUsers(ctx context.Context) ([]models.User, error)
}

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp      *server.MCPServer
	db       Store
	resolver *resolver.Service
	net      resolver.Networking
	branding nodeinfo.Branding
}

// New creates a new MCP server with all Ansuz tools registered.
func New(db Store, net resolver.Networking, branding nodeinfo.Branding, logger *slog.Logger) *Server {
	s := &Server{
		db:       db,
		resolver: resolver.New(db, net, logger),
		net:      net,
		branding: branding,
	}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		branding.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("webfinger_lookup",
		mcp.WithDescription("Resolve an account (acct:name@host, name@host) or actor URI "+
			"the way /.well-known/webfinger does, returning the JRD document."),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Account or URI to resolve")),
		mcp.WithArray("rels", mcp.Description("Optional link relations to keep"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.webfingerLookup)

	s.mcp.AddTool(mcp.NewTool("nodeinfo",
		mcp.WithDescription("Return the NodeInfo document this server publishes."),
		mcp.WithString("version", mcp.Description("Schema version, 2.0 or 2.1 (default 2.1)"),
			mcp.Enum(nodeinfo.Version2_0, nodeinfo.Version2_1)),
	), s.nodeInfo)

	s.mcp.AddTool(mcp.NewTool("find_user",
		mcp.WithDescription("Look up one account in the directory by tag (@name@host or name)."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Account tag, e.g. @natty@tech.lgbt")),
	), s.findUser)

	s.mcp.AddTool(mcp.NewTool("list_users",
		mcp.WithDescription("List every account in the directory as acct: identifiers."),
	), s.listUsers)

	s.mcp.AddTool(mcp.NewTool("get_roster_format",
		mcp.WithDescription("Returns the roster file format used to populate the directory."),
	), s.getRosterFormat)

	// Resource: roster format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://roster-format", "Roster Format",
			mcp.WithResourceDescription("YAML format of the roster file that feeds the user directory."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRosterFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) webfingerLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resource, err := req.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.resolver.Resolve(ctx, resolver.Query{
		Resource: webfinger.ParseSubject(resource),
		Rels:     req.GetStringSlice("rels", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) nodeInfo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch version := req.GetString("version", nodeinfo.Version2_1); version {
	case nodeinfo.Version2_0:
		return jsonResult(nodeinfo.Build20(s.branding))
	case nodeinfo.Version2_1:
		return jsonResult(nodeinfo.Build21(s.branding))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported nodeinfo version %q", version)), nil
	}
}

func (s *Server) findUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := fedtag.ParseDecoded(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var host *string
	if tag.HasHost() && !strings.EqualFold(tag.Host, s.net.Host) {
		host = &tag.Host
	}
	u, err := s.db.FindUserByTag(ctx, tag.Name, host)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if u == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", tag)), nil
	}
	return jsonResult(u)
}

func (s *Server) listUsers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.db.AllUsers(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(users) == 0 {
		return mcp.NewToolResultText("no users found"), nil
	}
	lines := make([]string, 0, len(users))
	for _, u := range users {
		t := fedtag.Tag{Name: u.Username, Host: s.net.Host}
		if u.Host != nil {
			t.Host = *u.Host
		}
		lines = append(lines, t.Acct().String())
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getRosterFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RosterFormatContract), nil
}

func (s *Server) readRosterFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://roster-format",
			MIMEType: "text/markdown",
			Text:     RosterFormatContract,
		},
	}, nil
}
