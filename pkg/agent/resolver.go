package agent

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/pkg/logger"
	"ai-todo-agent-be/pkg/agent/tools"
	"ai-todo-agent-be/pkg/llm"

	"github.com/google/uuid"
)

const fallbackReply = "I couldn't process that, please try again."

// Config bounds the upstream call: a hard per-attempt timeout shorter than
// any client-facing timeout, and a bounded retry loop with jittered
// exponential backoff.
type Config struct {
	MaxAttempts  int
	CallTimeout  time.Duration
	BackoffBase  time.Duration
	HistoryLimit int
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		CallTimeout:  12 * time.Second,
		BackoffBase:  500 * time.Millisecond,
		HistoryLimit: 20,
	}
}

// Resolution is one completed assistant turn: the reply text and the
// ordered record of every tool invocation attempted.
type Resolution struct {
	Reply   string
	Records []entity.ToolInvocationRecord
}

// Resolver turns a user message plus history into tool calls and a reply.
// Accepted calls run sequentially through the registry so that a turn like
// "add X and mark it done" observes its own add before the complete call.
type Resolver struct {
	provider llm.LLMProvider
	registry *tools.Registry
	logger   logger.ILogger
	cfg      Config
}

func NewResolver(provider llm.LLMProvider, registry *tools.Registry, log logger.ILogger, cfg Config) *Resolver {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 12 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	return &Resolver{
		provider: provider,
		registry: registry,
		logger:   log,
		cfg:      cfg,
	}
}

// Resolve asks the model for a proposal, filters it against the tool
// allowlist, executes accepted calls in order and composes the
// confirmation reply. Upstream failures after the retry budget surface as
// dto.ErrUpstreamUnavailable; tool failures never fail the turn, they are
// folded into the reply.
func (r *Resolver) Resolve(ctx context.Context, userId uuid.UUID, history []llm.Message, userMessage string) (*Resolution, error) {
	messages := BuildMessages(history, userMessage, r.cfg.HistoryLimit)

	response, err := r.complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrUpstreamUnavailable, err)
	}

	proposal := ParseProposal(response)
	accepted := r.filterCalls(proposal.ToolCalls)

	if len(accepted) == 0 {
		reply := proposal.Reply
		if strings.TrimSpace(reply) == "" {
			reply = fallbackReply
		}
		return &Resolution{Reply: reply}, nil
	}

	outcomes := make([]tools.Outcome, 0, len(accepted))
	for _, call := range accepted {
		// Sequential on purpose: each call must observe prior effects.
		// A failed call is never retried against possibly-different state.
		outcome := r.registry.Invoke(ctx, userId, call.Tool, call.Arguments)
		outcomes = append(outcomes, outcome)
		if !outcome.Succeeded() {
			r.logger.Warn("agent", "tool invocation failed", map[string]interface{}{
				"tool":   outcome.Tool,
				"kind":   outcome.FailureKind,
				"error":  outcome.Error,
				"userId": userId.String(),
			})
		}
	}

	return &Resolution{
		Reply:   composeReply(outcomes),
		Records: toRecords(outcomes),
	}, nil
}

// complete runs the bounded retry loop around the upstream call.
func (r *Resolver) complete(ctx context.Context, messages []llm.Message) (string, error) {
	var lastErr error

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.cfg.BackoffBase << (attempt - 1)
			delay += time.Duration(rand.Int63n(int64(r.cfg.BackoffBase)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
		response, err := r.provider.Chat(callCtx, messages, llm.WithTemperature(0.2))
		cancel()

		if err == nil {
			return response, nil
		}
		lastErr = err

		if !llm.IsTransient(err) {
			r.logger.Error("agent", "upstream call failed permanently", map[string]interface{}{
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			return "", err
		}
		r.logger.Warn("agent", "upstream call failed, will retry", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	return "", lastErr
}

// filterCalls drops any tool name outside the fixed five-tool set before it
// can reach the registry. Hallucinated or injected names are logged and
// leave no invocation record.
func (r *Resolver) filterCalls(calls []ToolCall) []ToolCall {
	accepted := make([]ToolCall, 0, len(calls))
	for _, call := range calls {
		if !tools.IsKnown(call.Tool) {
			r.logger.Warn("agent", "dropped unknown tool proposal", map[string]interface{}{
				"tool": call.Tool,
			})
			continue
		}
		accepted = append(accepted, call)
	}
	return accepted
}

// composeReply builds the confirmation text from tool outcomes so the user
// always learns what actually happened, including partial failures.
func composeReply(outcomes []tools.Outcome) string {
	parts := make([]string, 0, len(outcomes)+1)
	for _, outcome := range outcomes {
		parts = append(parts, outcome.Summary)
		if outcome.Tool == tools.ToolListTasks && outcome.Succeeded() {
			if listing := renderListing(outcome); listing != "" {
				parts = append(parts, listing)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func renderListing(outcome tools.Outcome) string {
	views, ok := outcome.Result.([]tools.TaskView)
	if !ok || len(views) == 0 {
		return ""
	}
	titles := make([]string, len(views))
	completed := make([]bool, len(views))
	for i, v := range views {
		titles[i] = v.Title
		completed[i] = v.Completed
	}
	return formatTaskList(titles, completed)
}

func toRecords(outcomes []tools.Outcome) []entity.ToolInvocationRecord {
	records := make([]entity.ToolInvocationRecord, len(outcomes))
	for i, outcome := range outcomes {
		records[i] = entity.ToolInvocationRecord{
			Tool:      outcome.Tool,
			Arguments: outcome.Arguments,
			Status:    outcome.Status,
			Result:    outcome.Result,
			Error:     outcome.Error,
		}
	}
	return records
}
