package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/tasker/internal/tasks"
)

type fakeDispatcher struct {
	outcome  *tasks.Outcome
	executed []tasks.Operation
}

func (f *fakeDispatcher) Dispatch(_ context.Context, task string) *tasks.Outcome {
	out := *f.outcome
	out.Task = task
	return &out
}

func (f *fakeDispatcher) Execute(_ context.Context, op tasks.Operation) (*tasks.Result, error) {
	f.executed = append(f.executed, op)
	if !op.Known() {
		return nil, &tasks.Error{Kind: tasks.ErrUnrecognized, Msg: "unknown operation"}
	}
	return tasks.Success("ran %s", op), nil
}

type fakeFiles map[string]string

func (f fakeFiles) ReadExternal(path string) ([]byte, error) {
	content, ok := f[path]
	if !ok {
		return nil, tasks.PathNotFound(path)
	}
	return []byte(content), nil
}

func connect(t *testing.T, server *mcpsdk.Server) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callText(t *testing.T, cs *mcpsdk.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("call %s: expected one content block, got %d", name, len(res.Content))
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("call %s: expected text content, got %T", name, res.Content[0])
	}
	return text.Text, res.IsError
}

func TestToMCPTool(t *testing.T) {
	tool := toMCPTool(toolSpec{
		Name:        "test_tool",
		Description: "A test tool",
		Parameters: map[string]param{
			"name":  {Type: "string", Description: "The name", Required: true},
			"count": {Type: "integer", Description: "A count"},
			"mode":  {Type: "string", Description: "The mode", Required: true, Enum: []string{"fast", "slow"}},
		},
	})

	if tool.Name != "test_tool" {
		t.Errorf("Name = %q, want %q", tool.Name, "test_tool")
	}

	data, err := json.Marshal(tool.InputSchema)
	if err != nil {
		t.Fatalf("marshal InputSchema: %v", err)
	}
	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("unmarshal InputSchema: %v", err)
	}

	if schema.Type != "object" {
		t.Errorf("schema type = %q, want object", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Errorf("schema properties len = %d, want 3", len(schema.Properties))
	}
	if len(schema.Required) != 2 || schema.Required[0] != "mode" || schema.Required[1] != "name" {
		t.Errorf("schema required = %v, want [mode name]", schema.Required)
	}
	if enum, ok := schema.Properties["mode"]["enum"].([]any); !ok || len(enum) != 2 {
		t.Errorf("mode enum = %v, want 2 values", schema.Properties["mode"]["enum"])
	}
}

func TestToMCPTool_NoParams(t *testing.T) {
	tool := toMCPTool(toolSpec{Name: "simple", Parameters: map[string]param{}})

	schema, ok := tool.InputSchema.(map[string]any)
	if !ok {
		t.Fatalf("InputSchema type = %T", tool.InputSchema)
	}
	if _, ok := schema["required"]; ok {
		t.Error("schema should not have required field when no params are required")
	}
}

func TestListTools(t *testing.T) {
	d := &fakeDispatcher{outcome: &tasks.Outcome{}}
	cs := connect(t, NewMCPServer(d, fakeFiles{}, "test"))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	got := make(map[string]bool)
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, want := range []string{"run_task", "execute_operation", "read_file", "list_operations"} {
		if !got[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestRunTask(t *testing.T) {
	d := &fakeDispatcher{outcome: &tasks.Outcome{
		State:  tasks.StateSucceeded,
		Result: tasks.Success("Contacts sorted").With("output_file", "/data/contacts-sorted.json"),
	}}
	cs := connect(t, NewMCPServer(d, fakeFiles{}, "test"))

	text, isErr := callText(t, cs, "run_task", map[string]any{"task": "sort contacts"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(text), &body); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if body["status"] != "success" || body["output_file"] != "/data/contacts-sorted.json" {
		t.Errorf("unexpected result %v", body)
	}
}

func TestRunTask_Failure(t *testing.T) {
	d := &fakeDispatcher{outcome: &tasks.Outcome{
		State: tasks.StateUnrecognized,
		Err:   &tasks.Error{Kind: tasks.ErrUnrecognized, Msg: "task not recognized"},
	}}
	cs := connect(t, NewMCPServer(d, fakeFiles{}, "test"))

	text, isErr := callText(t, cs, "run_task", map[string]any{"task": "bake bread"})
	if !isErr {
		t.Fatal("expected tool error")
	}
	var body toolError
	if err := json.Unmarshal([]byte(text), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Kind != "unrecognized" || body.State != "unrecognized" {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestExecuteOperation(t *testing.T) {
	d := &fakeDispatcher{outcome: &tasks.Outcome{}}
	cs := connect(t, NewMCPServer(d, fakeFiles{}, "test"))

	if text, isErr := callText(t, cs, "execute_operation", map[string]any{"operation": "count_weekdays"}); isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	if len(d.executed) != 1 || d.executed[0] != tasks.OpCountWeekdays {
		t.Errorf("executed = %v, want [count_weekdays]", d.executed)
	}
}

func TestReadFile(t *testing.T) {
	files := fakeFiles{"/data/email-sender.txt": "alice@example.com"}
	cs := connect(t, NewMCPServer(&fakeDispatcher{outcome: &tasks.Outcome{}}, files, "test"))

	text, isErr := callText(t, cs, "read_file", map[string]any{"path": "/data/email-sender.txt"})
	if isErr || text != "alice@example.com" {
		t.Errorf("read_file = %q (error=%v)", text, isErr)
	}

	text, isErr = callText(t, cs, "read_file", map[string]any{"path": "/data/missing.txt"})
	if !isErr {
		t.Fatalf("expected tool error, got %q", text)
	}
	var body toolError
	if err := json.Unmarshal([]byte(text), &body); err != nil || body.Kind != "path_not_found" {
		t.Errorf("unexpected error body %q", text)
	}
}

func TestListOperations(t *testing.T) {
	cs := connect(t, NewMCPServer(&fakeDispatcher{outcome: &tasks.Outcome{}}, fakeFiles{}, "test"))

	text, _ := callText(t, cs, "list_operations", map[string]any{})
	var names []string
	if err := json.Unmarshal([]byte(text), &names); err != nil {
		t.Fatalf("decode operations: %v", err)
	}
	if len(names) != len(tasks.Operations()) {
		t.Errorf("got %d operations, want %d", len(names), len(tasks.Operations()))
	}
}
