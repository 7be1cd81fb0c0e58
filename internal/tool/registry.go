package tool

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/xeipuuv/gojsonschema"
)

// Function executes a tool call with its raw argument string.
type Function func(args string) (string, error)

// Tool is a function exposed to a model together with its JSON schema.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Fn          Function

	// Raw, when set, accepts arguments that are not a JSON object and passes
	// them to Fn untouched.
	Raw func(args string) bool
}

// Definition converts the tool into the request type of the chat API.
func (t *Tool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		},
	}
}

// ValidationError lists every schema violation of a set of arguments.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "arguments failed schema validation"
	}
	return "invalid arguments: " + strings.Join(e.Issues, "; ")
}

// Validate checks args against the tool's parameter schema.
func (t *Tool) Validate(args string) error {
	if strings.TrimSpace(args) == "" {
		return &ValidationError{Issues: []string{"arguments are empty"}}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(t.Parameters),
		gojsonschema.NewStringLoader(args),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &ValidationError{Issues: issues}
}

// Call validates args and runs the tool.
func (t *Tool) Call(args string) (string, error) {
	if t.Raw != nil && t.Raw(args) {
		return t.Fn(args)
	}
	if err := t.Validate(args); err != nil {
		return "", err
	}
	return t.Fn(args)
}

// Registry holds registered tools
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool, replacing any tool of the same name.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool from the registry
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Definitions returns every tool definition sorted by name.
func (r *Registry) Definitions() []openai.Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]openai.Tool, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Handle runs a tool call and wraps the outcome in a tool result message
// whose content is {"output": ...} on success or {"error": ...} on failure.
func (r *Registry) Handle(call openai.ToolCall) openai.ChatCompletionMessage {
	if call.ID == "" {
		call.ID = NewCallID()
	}

	var output string
	var err error
	if t := r.Get(call.Function.Name); t == nil {
		err = fmt.Errorf("unknown tool: %s", call.Function.Name)
	} else {
		output, err = t.Call(call.Function.Arguments)
	}

	content := map[string]interface{}{"output": output}
	if err != nil {
		content = map[string]interface{}{"error": err.Error()}
	}
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    mustMarshal(content),
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	}
}

// NewCallID returns an ID in the style the chat API uses for tool calls.
func NewCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func mustMarshal(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("tool: marshal result: %v", err))
	}
	return string(data)
}
