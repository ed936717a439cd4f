// Package mcpserver exposes schema bundling, validation and diffing via MCP
// tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/schemacheck/schemacheck-go/internal/domain"
	"github.com/schemacheck/schemacheck-go/internal/pipeline"
	"github.com/schemacheck/schemacheck-go/internal/report"
)

// Toolkit is the set of capabilities the tools run on.
type Toolkit struct {
	Bundler   pipeline.Bundler
	Validator pipeline.Validator
	Differ    pipeline.Differ
}

// RegisterTools registers all schemacheck MCP tools on the given server.
func RegisterTools(server *mcp.Server, tk Toolkit) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_schema",
			Description: "Bundle a JSON Schema file and validate it against its meta-schema",
		},
		validateSchemaHandler(tk),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "bundle_schema",
			Description: "Resolve every $ref of a JSON or YAML schema file into one JSON document",
		},
		bundleSchemaHandler(tk),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "diff_schemas",
			Description: "Show a unified diff and change summary between two schema files",
		},
		diffSchemasHandler(tk),
	)
}

type pathInput struct {
	Path string `json:"path"`
}

type validateOutput struct {
	Validation domain.ValidationResult `json:"validation"`
	Report     string                  `json:"report"`
}

func validateSchemaHandler(tk Toolkit) mcp.ToolHandlerFor[pathInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input pathInput) (*mcp.CallToolResult, any, error) {
		if input.Path == "" {
			return errorResult("path is required"), nil, nil
		}

		doc, err := tk.Bundler.Bundle(ctx, input.Path)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		res, err := tk.Validator.Validate(ctx, doc)
		if err != nil {
			return nil, nil, fmt.Errorf("validate_schema: %w", err)
		}

		rep := report.Build(report.Input{
			Validation: &res,
			Diff:       domain.DiffResult{Outcome: domain.DiffNotConfigured},
		})
		return textResult(validateOutput{Validation: res, Report: rep.Summary})
	}
}

func bundleSchemaHandler(tk Toolkit) mcp.ToolHandlerFor[pathInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input pathInput) (*mcp.CallToolResult, any, error) {
		if input.Path == "" {
			return errorResult("path is required"), nil, nil
		}

		doc, err := tk.Bundler.Bundle(ctx, input.Path)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(doc)
	}
}

type diffInput struct {
	PreviousPath string `json:"previous_path"`
	CurrentPath  string `json:"current_path"`
}

func diffSchemasHandler(tk Toolkit) mcp.ToolHandlerFor[diffInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input diffInput) (*mcp.CallToolResult, any, error) {
		if input.PreviousPath == "" || input.CurrentPath == "" {
			return errorResult("previous_path and current_path are required"), nil, nil
		}

		prev, err := tk.Bundler.Bundle(ctx, input.PreviousPath)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		cur, err := tk.Bundler.Bundle(ctx, input.CurrentPath)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		text, err := tk.Differ.Diff(prev, cur)
		if err != nil {
			return nil, nil, fmt.Errorf("diff_schemas: %w", err)
		}
		res := domain.DiffResult{Outcome: domain.DiffIdentical, PreviousTag: input.PreviousPath}
		if text != "" {
			res.Outcome = domain.DiffChanged
			res.Text = text
			res.Changes, err = tk.Differ.Summarize(prev, cur)
			if err != nil {
				return nil, nil, fmt.Errorf("diff_schemas: %w", err)
			}
		}
		return textResult(res)
	}
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
