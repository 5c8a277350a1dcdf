package agent

import (
	"encoding/json"
	"strings"
)

// ToolCall is one proposed invocation, arguments left raw for the
// registry's strict decoding.
type ToolCall struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// Proposal is the model's structured answer: a candidate reply plus an
// ordered list of tool calls.
type Proposal struct {
	Reply     string     `json:"reply"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// ParseProposal extracts a Proposal from a raw model response. Models wrap
// JSON in markdown fences or prose often enough that we scan for the
// outermost object instead of demanding a clean document. A response with
// no parsable object degrades to a plain-text reply with no tool calls.
func ParseProposal(response string) *Proposal {
	cleaned := stripFences(response)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		var proposal Proposal
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &proposal); err == nil {
			if proposal.Reply != "" || len(proposal.ToolCalls) > 0 {
				return &proposal
			}
		}
	}

	return &Proposal{Reply: strings.TrimSpace(response)}
}

func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
