package agent

import (
	"fmt"
	"strings"

	"ai-todo-agent-be/pkg/llm"
)

// systemPrompt pins the model to the tool-call contract. The reply must be
// a single JSON object; anything else is handled leniently by the parser.
const systemPrompt = `You are a task-management assistant. The user manages a personal todo list through you.

You can call these tools, and ONLY these tools:

- add_task: create a task. Arguments: {"title": string (required), "description": string (optional)}
- list_tasks: list the user's tasks. Arguments: {"completed": boolean (optional filter)}
- update_task: change a task's title or description. Arguments: {"task_id": string (required), "title": string (optional), "description": string (optional)}
- delete_task: delete a task. Arguments: {"task_id": string (required)}
- complete_task: mark a task done or not done. Arguments: {"task_id": string (required), "completed": boolean (required)}

Task ids are the exact id values shown in earlier list_tasks results in this conversation. Never invent an id. When the user refers to a task by position or name ("task 2", "the meeting task"), resolve it against the most recent listing in the conversation; if you cannot resolve it, call list_tasks first or ask.

Respond with a single JSON object and nothing else:
{"reply": "<what you would say to the user>", "tool_calls": [{"tool": "<name>", "arguments": {...}}]}

Use an empty tool_calls array when no action is needed. Order tool_calls in the order they must run; later calls may depend on earlier ones.`

// BuildMessages assembles the upstream request: system contract, a bounded
// window of recent history for reference resolution, then the new message.
func BuildMessages(history []llm.Message, userMessage string, historyLimit int) []llm.Message {
	if historyLimit > 0 && len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})
	return messages
}

// RenderTaskLine formats one task for a listing reply.
func RenderTaskLine(index int, title string, completed bool) string {
	state := "not done"
	if completed {
		state = "done"
	}
	return fmt.Sprintf("%d. %s (%s)", index, title, state)
}

// formatTaskList renders a complete listing block.
func formatTaskList(titles []string, completed []bool) string {
	var b strings.Builder
	for i := range titles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderTaskLine(i+1, titles[i], completed[i]))
	}
	return b.String()
}
