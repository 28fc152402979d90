package llm

import (
	"encoding/json"
	"strings"
)

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType is the discriminator tag for ContentBlock.
type BlockType string

const (
	BlockText                BlockType = "text"
	BlockToolUse             BlockType = "tool_use"
	BlockServerToolUse       BlockType = "server_tool_use"
	BlockCodeExecutionResult BlockType = "code_execution_tool_result"
	BlockToolResult          BlockType = "tool_result"
)

// ContentBlock is a tagged union representing one block of message content.
// Text blocks carry Text; tool_use and server_tool_use blocks carry ID, Name
// and Input; tool_result blocks carry ToolUseID, Content and IsError.
type ContentBlock struct {
	Type      BlockType       `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// TextBlock creates a text ContentBlock.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock creates a tool_use ContentBlock.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ServerToolUseBlock creates a server_tool_use ContentBlock.
func ServerToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockServerToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock creates a tool_result ContentBlock answering the tool_use
// block with the given id.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// CodeInput extracts the "code" field from a server_tool_use input payload.
// Returns "" when the input carries no code.
func (b ContentBlock) CodeInput() string {
	if len(b.Input) == 0 {
		return ""
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(b.Input, &payload); err != nil {
		return ""
	}
	return payload.Code
}

// Message is the fundamental unit of conversation. Content is ordered and
// immutable once the message is appended to a history.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserMessage creates a user Message with a single text block.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// AssistantMessage creates an assistant Message preserving the given blocks
// verbatim. The model's exact block structure is required for turn coherence.
func AssistantMessage(blocks []ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: blocks}
}

// ToolResultsMessage creates the user-role message that answers one turn's
// tool_use blocks with an ordered array of tool_result blocks.
func ToolResultsMessage(results []ContentBlock) Message {
	return Message{Role: RoleUser, Content: results}
}

// TextContent returns the concatenation of all text blocks.
func (m Message) TextContent() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolDescriptor describes a callable tool for the remote model. Type is set
// only for provider-native capabilities such as code execution.
// AllowedCallers restricts which execution contexts may invoke the tool; an
// empty slice means only the model itself.
type ToolDescriptor struct {
	Type           string                 `json:"type,omitempty"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	InputSchema    map[string]interface{} `json:"input_schema,omitempty"`
	AllowedCallers []string               `json:"allowed_callers,omitempty"`
}

// CodeExecutionCaller is the caller identifier for model-executed code. Tools
// listing it in AllowedCallers may be invoked from inside the model's sandbox.
const CodeExecutionCaller = "code_execution_20250825"

// CodeExecutionTool returns the synthetic descriptor that enables the model's
// own code-execution capability.
func CodeExecutionTool() ToolDescriptor {
	return ToolDescriptor{Type: CodeExecutionCaller, Name: "code_execution"}
}

// TurnRequest is the input for one request/response round trip.
type TurnRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens,omitempty"`
	System    string           `json:"system,omitempty"`
	Tools     []ToolDescriptor `json:"tools,omitempty"`
	Messages  []Message        `json:"messages"`
	// Container is the sandbox handle from a previous turn of the same
	// exchange. Empty on the first turn; never fabricated by callers.
	Container string `json:"container,omitempty"`
}

// TurnResponse is the output of one round trip.
type TurnResponse struct {
	Content    []ContentBlock `json:"content"`
	Container  string         `json:"container,omitempty"`
	StopReason string         `json:"stop_reason,omitempty"`
}

// Text returns the concatenated text from all text blocks in the response.
func (r TurnResponse) Text() string {
	var sb strings.Builder
	for _, b := range r.Content {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the actionable tool_use blocks in presentation order.
// server_tool_use blocks are excluded; they are observational only.
func (r TurnResponse) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range r.Content {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

// ServerToolUses returns the server_tool_use blocks in presentation order.
func (r TurnResponse) ServerToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range r.Content {
		if b.Type == BlockServerToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}
