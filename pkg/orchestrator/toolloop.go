package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopassist/pkg/llm"
	"shopassist/pkg/logx"
	"shopassist/pkg/metrics"
	"shopassist/pkg/tools"
)

// maxLoopMessages bounds the prompt window inside the tool loop. Beyond it
// the oldest exchange after the system message is dropped, always a whole
// assistant/result pair so the model never sees an orphaned tool result.
const maxLoopMessages = 8

const exhaustedLoopMessage = "I wasn't able to finish that request. Could you rephrase or break it into smaller steps?"

// toolLoop runs the bounded reason-act cycle for general turns.
type toolLoop struct {
	client        llm.Client
	registry      *tools.Registry
	recorder      *metrics.Recorder
	logger        *logx.Logger
	maxIterations int
}

// loopResult is what a completed loop hands back to the turn handler.
type loopResult struct {
	answer         string
	cartSnapshot   string
	approvalAction string
	needsApproval  bool
	usedTools      bool
}

func (l *toolLoop) run(ctx context.Context, messages []llm.CompletionMessage) (loopResult, error) {
	var result loopResult

	req := llm.NewCompletionRequest(messages)
	req.Tools = l.registry.Definitions()

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		req.Messages = trimLoopWindow(req.Messages)

		start := time.Now()
		resp, err := l.client.Complete(ctx, req)
		l.recorder.ObserveLLMRequest(l.client.GetModelName(), err == nil, time.Since(start))
		if err != nil {
			return result, fmt.Errorf("completion failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			result.answer = resp.Content
			return result, nil
		}

		result.usedTools = true
		assistantNote := resp.Content
		for _, call := range resp.ToolCalls {
			payload, err := l.execCall(ctx, call, &result)
			if err != nil {
				return result, err
			}
			if assistantNote == "" {
				assistantNote = fmt.Sprintf("Calling tool %s", call.Name)
			}
			req.Messages = append(req.Messages,
				llm.NewAssistantMessage(assistantNote),
				llm.NewUserMessage(fmt.Sprintf("Tool result (%s): %s", call.Name, payload)),
			)
			assistantNote = ""
		}
	}

	l.logger.Warn("tool loop exhausted %d iterations", l.maxIterations)
	result.answer = exhaustedLoopMessage
	return result, nil
}

// execCall executes one tool call and returns the serialized result payload.
func (l *toolLoop) execCall(ctx context.Context, call llm.ToolCall, result *loopResult) (string, error) {
	tool, err := l.registry.Get(call.Name)
	if err != nil {
		l.recorder.ObserveToolExec(call.Name, false)
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()), nil
	}

	out, err := tool.Exec(ctx, call.Parameters)
	if err != nil {
		l.recorder.ObserveToolExec(call.Name, false)
		l.logger.Error("tool %s failed: %v", call.Name, err)
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()), nil
	}
	l.recorder.ObserveToolExec(call.Name, true)

	payload, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s result: %w", call.Name, err)
	}

	if m, ok := out.(map[string]any); ok {
		if flagged, _ := m["needs_approval"].(bool); flagged {
			result.needsApproval = true
			result.approvalAction = call.Name
		}
	}
	if tools.IsCartTool(call.Name) {
		result.cartSnapshot = string(payload)
	}
	return string(payload), nil
}

// trimLoopWindow drops the oldest assistant/result pair after the system
// message once the window exceeds maxLoopMessages.
func trimLoopWindow(messages []llm.CompletionMessage) []llm.CompletionMessage {
	for len(messages) > maxLoopMessages {
		cut := 1
		if cut+2 > len(messages) {
			break
		}
		messages = append(messages[:cut:cut], messages[cut+2:]...)
	}
	return messages
}
