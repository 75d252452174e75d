// Package mcp exposes a recipe store as Model Context Protocol tools.
//
// Every tool call resolves to one JSON text payload. Successful payloads
// suggest follow-up calls in next_actions; failures carry {"error", "kind"}
// and set IsError.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

// ServerName is reported to clients during initialization.
const ServerName = "recipes"

// Server holds the store and the shared state of the tool handlers.
type Server struct {
	store    types.RecipeStore
	content  *Content
	version  string
	log      *slog.Logger
	validate *validator.Validate
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for per-call lines.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithVersion sets the version reported by the about tool and to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates the tool handlers for store.
func NewServer(store types.RecipeStore, opts ...Option) (*Server, error) {
	content, err := LoadContent()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:    store,
		content:  content,
		version:  "dev",
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// newValidator reports fields by their JSON names, as the caller sent them.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toolDef is one registered tool.
type toolDef struct {
	name        string
	description string
}

// secretsWarning is appended to tools that write content.
const secretsWarning = " WARNING: Do NOT include API keys, passwords, or secrets; recipes may be committed to version control."

var toolDefs = []toolDef{
	{"about", "Get information about the recipes server, list available tools and version info"},
	{"list_recipes", "Show the full list of recipes with id, title and description"},
	{"get_recipe", "Get the full recipe by id number, including keywords, snippets, and addendums"},
	{"search_recipes", "Search recipes by any word or phrase. Multiple words search as OR by default (matches either). For exact matches use quotes. Results ranked by relevance: title (highest), keywords, description, content."},
	{"search_snippets", "Search code snippets across all recipes. Multiple words search as OR by default (matches either). Results ranked by relevance: snippet description (highest), code content, recipe title, keywords, recipe description."},
	{"get_snippet", "Get a code snippet by its ID. Use this when you have a snippet ID from search results."},
	{"get_recipe_snippets", "Get all code snippets for a recipe id"},
	{"get_recipe_snippet", "Get a specific code snippet by recipe ID and ref name. Use this when browsing a recipe and you know the snippet's ref (like 'setup' or 'middleware')."},
	{"create_recipe", "Create a new recipe with title, description, keywords and code snippets." + secretsWarning},
	{"create_recipe_howto", "Get guided instructions on how to create a recipe with proper formatting and structure"},
	{"delete_recipe", "Delete a recipe by id (cascades to keywords, snippets, and addendums)"},
	{"update_recipe", "Add an addendum to a recipe"},
	{"recipe_add_snippet", "Add a code snippet to an existing recipe." + secretsWarning},
}

func (s *Server) tool(name string) *mcpsdk.Tool {
	for _, d := range toolDefs {
		if d.name == name {
			return &mcpsdk.Tool{Name: d.name, Description: d.description}
		}
	}
	panic(fmt.Sprintf("mcp: unknown tool %q", name))
}

// MCPServer builds an SDK server with every tool registered.
func (s *Server) MCPServer() *mcpsdk.Server {
	impl := &mcpsdk.Implementation{Name: ServerName, Version: s.version}
	opts := &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			s.log.Info("client connected")
		},
	}
	srv := mcpsdk.NewServer(impl, opts)

	addTool(s, srv, s.tool("about"), s.about)
	addTool(s, srv, s.tool("list_recipes"), s.listRecipes)
	addTool(s, srv, s.tool("get_recipe"), s.getRecipe)
	addTool(s, srv, s.tool("search_recipes"), s.searchRecipes)
	addTool(s, srv, s.tool("search_snippets"), s.searchSnippets)
	addTool(s, srv, s.tool("get_snippet"), s.getSnippet)
	addTool(s, srv, s.tool("get_recipe_snippets"), s.getRecipeSnippets)
	addTool(s, srv, s.tool("get_recipe_snippet"), s.getRecipeSnippet)
	addTool(s, srv, s.tool("create_recipe"), s.createRecipe)
	addTool(s, srv, s.tool("create_recipe_howto"), s.createRecipeHowto)
	addTool(s, srv, s.tool("delete_recipe"), s.deleteRecipe)
	addTool(s, srv, s.tool("update_recipe"), s.updateRecipe)
	addTool(s, srv, s.tool("recipe_add_snippet"), s.addSnippet)
	return srv
}

// Run serves the tools over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving tools on stdio", "tools", len(toolDefs), "version", s.version)
	if err := s.MCPServer().Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// handler computes the payload of one tool call.
type handler[T any] func(ctx context.Context, args T) (any, error)

func addTool[T any](s *Server, srv *mcpsdk.Server, tool *mcpsdk.Tool, h handler[T]) {
	mcpsdk.AddTool(srv, tool, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[T]) (*mcpsdk.CallToolResultFor[any], error) {
		return invoke(ctx, s, tool.Name, params.Arguments, h)
	})
}

// invoke validates args, runs h and turns the outcome into a tool result.
// Errors never escape as protocol errors; they become error payloads.
func invoke[T any](ctx context.Context, s *Server, name string, args T, h handler[T]) (*mcpsdk.CallToolResultFor[any], error) {
	callID := newCallID()
	start := time.Now()
	log := s.log.With("call_id", callID, "tool", name)

	var payload any
	err := s.check(args)
	if err == nil {
		payload, err = h(ctx, args)
	}
	if err != nil {
		kind := types.ErrorKind(err)
		if kind == types.KindStorage {
			log.Error("tool call failed", "duration", time.Since(start), "kind", kind, "error", err)
		} else {
			log.Info("tool call rejected", "duration", time.Since(start), "kind", kind, "error", err)
		}
		return errorResponse(err)
	}
	log.Debug("tool call", "duration", time.Since(start))
	return jsonResponse(payload)
}

// check runs struct validation on args.
func (s *Server) check(args any) error {
	if reflect.ValueOf(args).Kind() != reflect.Struct {
		return nil
	}
	err := s.validate.Struct(args)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		msgs := make([]string, len(fields))
		for i, fe := range fields {
			msgs[i] = describeField(fe)
		}
		return fmt.Errorf("%w: %s", types.ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %w", types.ErrValidation, err)
}

func describeField(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func newCallID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
