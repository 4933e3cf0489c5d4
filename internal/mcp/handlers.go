// ABOUTME: MCP tool handler implementations for the faculty matching server
// ABOUTME: Translates tool arguments into service calls and results into JSON
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/harper/facultymatch/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	service    *core.Service
	refreshing sync.Mutex
	shutdownWg *sync.WaitGroup // background refreshes
}

// MatchPrompt handles the match_prompt tool
func (h *Handlers) MatchPrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("prompt argument is required and must be a string"), nil
	}

	result, err := h.service.MatchPrompt(ctx, prompt, h.matchOptions(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// MatchDocument handles the match_document tool
func (h *Handlers) MatchDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}

	result, err := h.service.MatchDocument(ctx, path, h.matchOptions(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// MatchSpreadsheet handles the match_spreadsheet tool
func (h *Handlers) MatchSpreadsheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}

	opts := core.SpreadsheetOptions{
		MatchOptions:      h.matchOptions(request),
		PromptColumns:     stringArray(request, "prompt_columns"),
		IdentifierColumns: stringArray(request, "identifier_columns"),
	}
	result, err := h.service.MatchSpreadsheet(ctx, path, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if output := request.GetString("output_path", ""); output != "" && result.Batch != nil {
		if err := result.Batch.Report.WriteTSV(output); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to write report: %v", err)), nil
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("Saved the matches report to %s.", output))
	}
	return jsonResult(result)
}

// RefreshEmbeddings handles the refresh_embeddings tool
func (h *Handlers) RefreshEmbeddings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("dataset_path", "")

	if !h.refreshing.TryLock() {
		return mcp.NewToolResultError("An embedding refresh is already running."), nil
	}

	if request.GetBool("background", false) {
		h.shutdownWg.Add(1)
		go func() {
			defer h.shutdownWg.Done()
			defer h.refreshing.Unlock()
			report, err := h.service.Refresh(context.Background(), path)
			if err != nil {
				slog.Error("background refresh failed", "error", err)
				return
			}
			slog.Info("background refresh finished", "embedded", report.Index.EmbeddedRows, "message", report.Message)
		}()
		return mcp.NewToolResultText(`{"status":"started"}`), nil
	}

	defer h.refreshing.Unlock()
	report, err := h.service.Refresh(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(refreshSummary{
		Message:      report.Message,
		Model:        report.Index.Model,
		Dimension:    report.Index.Dimension,
		TotalRows:    report.Index.TotalRows,
		EmbeddedRows: report.Index.EmbeddedRows,
		TextSkipped:  report.TextSkipped,
		Missing:      report.Missing,
		SavedTo:      report.SavedTo,
	})
}

// refreshSummary omits the vectors from a build report.
type refreshSummary struct {
	Message      string `json:"message"`
	Model        string `json:"model"`
	Dimension    int    `json:"dimension"`
	TotalRows    int    `json:"totalRows"`
	EmbeddedRows int    `json:"embeddedRows"`
	TextSkipped  int    `json:"textSkipped"`
	Missing      int    `json:"missing"`
	SavedTo      string `json:"savedTo,omitempty"`
}

// DatasetStatus handles the dataset_status tool
func (h *Handlers) DatasetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.service.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load status: %v", err)), nil
	}
	return jsonResult(status)
}

// SuggestColumns handles the suggest_columns tool
func (h *Handlers) SuggestColumns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}

	suggestion, err := h.service.SuggestColumns(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(suggestion)
}

// Shutdown waits for background refreshes to complete
func (h *Handlers) Shutdown() {
	h.shutdownWg.Wait()
}

func (h *Handlers) matchOptions(request mcp.CallToolRequest) core.MatchOptions {
	return core.MatchOptions{
		Recommendations: request.GetInt("recommendations", h.service.Config().Recommendations),
		Scope: core.ScopeOptions{
			Programs:   stringArray(request, "programs"),
			RosterPath: request.GetString("roster_path", ""),
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stringArray reads an array argument. A single string is split on commas.
func stringArray(request mcp.CallToolRequest, key string) []string {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}

	var out []string
	switch raw := args[key].(type) {
	case []interface{}:
		for _, item := range raw {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range raw {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(raw, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}
