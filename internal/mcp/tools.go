// ABOUTME: MCP tool definitions and registration for the faculty matching server
// ABOUTME: Declares JSON schemas for matching, refresh, and dataset inspection tools
package mcp

import (
	"sync"

	"github.com/harper/facultymatch/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc *core.Service) *Handlers {
	handlers := NewHandlers(svc)

	scopeProperties := func(props map[string]interface{}) map[string]interface{} {
		props["recommendations"] = map[string]interface{}{
			"type":        "number",
			"description": "Faculty recommendations per student (default from FACMATCH_RECOMMENDATIONS)",
		}
		props["programs"] = map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Only consider faculty belonging to these programs",
		}
		props["roster_path"] = map[string]interface{}{
			"type":        "string",
			"description": "Spreadsheet listing the faculty to consider",
		}
		return props
	}

	// 1. match_prompt - rank faculty for one research interest statement
	server.AddTool(mcp.Tool{
		Name:        "match_prompt",
		Description: "Rank faculty members by similarity to a student's research interests.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: scopeProperties(map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "Student research interests",
				},
			}),
			Required: []string{"prompt"},
		},
	}, handlers.MatchPrompt)

	// 2. match_document - rank faculty for a document on disk
	server.AddTool(mcp.Tool{
		Name:        "match_document",
		Description: "Rank faculty members against the text of a plain text or Word document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: scopeProperties(map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the student document",
				},
			}),
			Required: []string{"path"},
		},
	}, handlers.MatchDocument)

	// 3. match_spreadsheet - rank faculty for every row of a prompt spreadsheet
	server.AddTool(mcp.Tool{
		Name:        "match_spreadsheet",
		Description: "Match every student row of a spreadsheet and optionally write the report as TSV.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: scopeProperties(map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the student spreadsheet",
				},
				"prompt_columns": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Columns holding the student prompts",
				},
				"identifier_columns": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Columns identifying each student",
				},
				"output_path": map[string]interface{}{
					"type":        "string",
					"description": "Optional TSV path for the matches report",
				},
			}),
			Required: []string{"path", "prompt_columns"},
		},
	}, handlers.MatchSpreadsheet)

	// 4. refresh_embeddings - analyze the faculty dataset and rebuild the index
	server.AddTool(mcp.Tool{
		Name:        "refresh_embeddings",
		Description: "Analyze the faculty dataset and rebuild the faculty embedding index.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset_path": map[string]interface{}{
					"type":        "string",
					"description": "Faculty dataset path (default: the previously analyzed dataset)",
				},
				"background": map[string]interface{}{
					"type":        "boolean",
					"description": "Return immediately and build in the background",
					"default":     false,
				},
			},
		},
	}, handlers.RefreshEmbeddings)

	// 5. dataset_status - report the stored analysis and index
	server.AddTool(mcp.Tool{
		Name:        "dataset_status",
		Description: "Report the analyzed faculty dataset, column selection, and embedding index.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.DatasetStatus)

	// 6. suggest_columns - preview a dataset with inferred column roles
	server.AddTool(mcp.Tool{
		Name:        "suggest_columns",
		Description: "Preview a faculty dataset and suggest embedding, identifier, and program columns.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Faculty dataset path",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.SuggestColumns)

	return handlers
}

// NewHandlers creates handlers bound to svc.
func NewHandlers(svc *core.Service) *Handlers {
	return &Handlers{
		service:    svc,
		shutdownWg: &sync.WaitGroup{},
	}
}
