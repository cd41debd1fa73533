package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/tasker/internal/tasks"
)

// Dispatcher is the subset of *tasks.Dispatcher the tools call.
type Dispatcher interface {
	Dispatch(ctx context.Context, task string) *tasks.Outcome
	Execute(ctx context.Context, op tasks.Operation) (*tasks.Result, error)
}

// FileReader reads files behind the external data prefix.
type FileReader interface {
	ReadExternal(path string) ([]byte, error)
}

type toolFunc func(ctx context.Context, args json.RawMessage) (string, error)

type toolError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	State string `json:"state,omitempty"`
}

// NewMCPServer creates an MCP server exposing run_task, execute_operation,
// read_file and list_operations.
func NewMCPServer(d Dispatcher, files FileReader, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "tasker",
		Version: version,
	}, nil)

	opNames := operationNames()
	tools := []struct {
		spec toolSpec
		run  toolFunc
	}{
		{
			spec: toolSpec{
				Name:        "run_task",
				Description: "Classify a free-text task and run the matching operation against the data directory",
				Parameters: map[string]param{
					"task": {Type: "string", Description: "Plain-English task description", Required: true},
				},
			},
			run: runTask(d),
		},
		{
			spec: toolSpec{
				Name:        "execute_operation",
				Description: "Run one operation directly, skipping classification",
				Parameters: map[string]param{
					"operation": {Type: "string", Description: "Operation identifier", Required: true, Enum: opNames},
				},
			},
			run: executeOperation(d),
		},
		{
			spec: toolSpec{
				Name:        "read_file",
				Description: "Read a text file under the data prefix",
				Parameters: map[string]param{
					"path": {Type: "string", Description: "Path starting with the data prefix, e.g. /data/logs-recent.txt", Required: true},
				},
			},
			run: readFile(files),
		},
		{
			spec: toolSpec{
				Name:        "list_operations",
				Description: "List the supported operation identifiers",
				Parameters:  map[string]param{},
			},
			run: func(context.Context, json.RawMessage) (string, error) {
				data, err := json.Marshal(opNames)
				return string(data), err
			},
		},
	}

	for _, t := range tools {
		name, run := t.spec.Name, t.run
		server.AddTool(toMCPTool(t.spec), func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			text, err := run(ctx, req.Params.Arguments)
			if err != nil {
				slog.Debug("mcp tool error", "tool", name, "error", err)
				return &mcpsdk.CallToolResult{
					IsError: true,
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
				}, nil
			}
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
			}, nil
		})
		slog.Debug("mcp tool registered", "tool", name)
	}

	return server
}

func operationNames() []string {
	ops := tasks.Operations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// failure renders a task error the same way the HTTP gateway does.
func failure(err error, state tasks.State) error {
	te := tasks.AsError(err)
	data, merr := json.Marshal(toolError{Error: te.Message(), Kind: tasks.KindName(te), State: string(state)})
	if merr != nil {
		return te
	}
	return errors.New(string(data))
}

func runTask(d Dispatcher) toolFunc {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var args struct {
			Task string `json:"task"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return "", err
		}
		out := d.Dispatch(ctx, args.Task)
		if out.Failed() {
			return "", failure(out.Err, out.State)
		}
		data, err := json.Marshal(out.Result)
		return string(data), err
	}
}

func executeOperation(d Dispatcher) toolFunc {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var args struct {
			Operation string `json:"operation"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return "", err
		}
		res, err := d.Execute(ctx, tasks.ParseOperation(args.Operation))
		if err != nil {
			return "", failure(err, "")
		}
		data, err := json.Marshal(res)
		return string(data), err
	}
}

func readFile(files FileReader) toolFunc {
	return func(_ context.Context, raw json.RawMessage) (string, error) {
		var args struct {
			Path string `json:"path"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return "", err
		}
		data, err := files.ReadExternal(args.Path)
		if err != nil {
			return "", failure(err, "")
		}
		return string(data), nil
	}
}
