package schema

// ResponseMessage is one entry of an AgentResponse. The set of variants is
// closed: HumanMessage, AIMessage, ToolMessage and SystemMessage.
type ResponseMessage interface {
	// MessageType is the variant tag, e.g. "AIMessage".
	MessageType() string
	MessageContent() string
	isResponseMessage()
}

type HumanMessage struct {
	Content string
}

type AIMessage struct {
	Content   string
	ToolCalls []ToolCall
}

type ToolMessage struct {
	Content    string
	ToolCallID string
	Name       string
}

type SystemMessage struct {
	Content string
}

func (HumanMessage) MessageType() string  { return "HumanMessage" }
func (AIMessage) MessageType() string     { return "AIMessage" }
func (ToolMessage) MessageType() string   { return "ToolMessage" }
func (SystemMessage) MessageType() string { return "SystemMessage" }

func (m HumanMessage) MessageContent() string  { return m.Content }
func (m AIMessage) MessageContent() string     { return m.Content }
func (m ToolMessage) MessageContent() string   { return m.Content }
func (m SystemMessage) MessageContent() string { return m.Content }

func (HumanMessage) isResponseMessage()  {}
func (AIMessage) isResponseMessage()     {}
func (ToolMessage) isResponseMessage()   {}
func (SystemMessage) isResponseMessage() {}

// AgentResponse is the result of one agent invocation: the full message
// sequence of the run, starting with the user's query.
type AgentResponse struct {
	RunID    string
	Messages []ResponseMessage
}

// NewAgentResponse converts a finished conversation into response variants.
func NewAgentResponse(runID string, conv Messages) *AgentResponse {
	resp := &AgentResponse{
		RunID:    runID,
		Messages: make([]ResponseMessage, 0, conv.Len()),
	}
	for _, m := range conv.Messages {
		switch m.Role {
		case RoleSystem:
			resp.Messages = append(resp.Messages, SystemMessage{Content: m.Content})
		case RoleUser:
			resp.Messages = append(resp.Messages, HumanMessage{Content: m.Content})
		case RoleAssistant:
			resp.Messages = append(resp.Messages, AIMessage{Content: m.Content, ToolCalls: m.ToolCalls})
		case RoleTool:
			resp.Messages = append(resp.Messages, ToolMessage{Content: m.Content, ToolCallID: m.ToolCallID, Name: m.ToolName})
		}
	}
	return resp
}
