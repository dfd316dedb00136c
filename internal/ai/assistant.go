// Package ai defines the external model capabilities consumed by the
// analysis pipeline and the question-answering loop. Implementations live
// in provider subpackages (currently Gemini); tests supply stubs.
package ai

import "context"

// Generator produces free-form text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// StructuredGenerator produces JSON constrained to the supplied schema.
// The returned string is the raw JSON document emitted by the provider.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *Schema) (string, error)
}

// Embedder converts text into a dense vector of fixed dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reasoner performs one reasoning step of a tool-calling session: given the
// system instruction, the transcript so far and the available tools, it
// returns either tool selections or a final textual answer.
type Reasoner interface {
	Step(ctx context.Context, req *ReasoningRequest) (*ReasoningStep, error)
}

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Message is one entry of a reasoning transcript. A model message may carry
// tool selections; a tool message carries the matching observations.
type Message struct {
	Role    Role
	Text    string
	Calls   []ToolCall
	Results []ToolResult
}

// ToolCall is a tool selection emitted by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult is the observation produced by executing a tool call.
type ToolResult struct {
	Name    string
	Content string
}

// ToolSpec declares a tool the model may select during reasoning.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// ParamSpec declares one string parameter of a tool.
type ParamSpec struct {
	Name        string
	Description string
	Required    bool
}

// ReasoningRequest carries everything a Reasoner needs for one step.
type ReasoningRequest struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// ReasoningStep is the model's output for one step. Calls being empty means
// the model considers Text its final answer.
type ReasoningStep struct {
	Text  string
	Calls []ToolCall
}

// Schema is a provider-neutral subset of JSON schema used to constrain
// structured generation. Providers translate it into their native form.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	Enum        []string
}

// Schema type names understood by providers.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)
