package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopassist/pkg/approval"
	"shopassist/pkg/commerce"
	"shopassist/pkg/config"
	"shopassist/pkg/flow"
	"shopassist/pkg/knowledge"
	"shopassist/pkg/llm"
	"shopassist/pkg/metrics"
	"shopassist/pkg/persistence"
	"shopassist/pkg/tools"
)

// scriptedLLM returns queued responses in order, then repeats the last one.
type scriptedLLM struct {
	responses []llm.CompletionResponse
	requests  []llm.CompletionRequest
	err       error
	delay     time.Duration
	calls     int
}

func (s *scriptedLLM) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	s.requests = append(s.requests, in)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return llm.CompletionResponse{}, ctx.Err()
		}
	}
	if s.err != nil {
		return llm.CompletionResponse{}, s.err
	}
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

func (s *scriptedLLM) Stream(ctx context.Context, in llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	resp, err := s.Complete(ctx, in)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.StreamChunk, 2)
	ch <- llm.StreamChunk{Content: resp.Content}
	ch <- llm.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (s *scriptedLLM) GetModelName() string { return "scripted" }

func textResponse(content string) llm.CompletionResponse {
	return llm.CompletionResponse{Content: content, StopReason: "end_turn"}
}

func toolResponse(name string, params map[string]any) llm.CompletionResponse {
	return llm.CompletionResponse{
		ToolCalls:  []llm.ToolCall{{ID: "call-1", Name: name, Parameters: params}},
		StopReason: "tool_use",
	}
}

type fixture struct {
	orch      *Orchestrator
	store     *persistence.Store
	svc       commerce.Service
	approvals *approval.Manager
	recorder  *metrics.Recorder
	client    *scriptedLLM
}

func newFixture(t *testing.T, client *scriptedLLM) *fixture {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	svc, err := commerce.Open(filepath.Join(dir, "commerce.db"))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	require.NoError(t, svc.Seed(ctx))

	kb, err := knowledge.Open(filepath.Join(dir, "knowledge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kb.Close() })
	require.NoError(t, kb.Seed(ctx))

	store, err := persistence.Open(filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	approvals := approval.NewManager()
	recorder := metrics.NewRecorder()
	cfg := config.Default()

	orch := New(Options{
		Store:     store,
		Registry:  tools.NewCommerceRegistry(svc, kb, 1500),
		Client:    client,
		Commerce:  svc,
		Approvals: approvals,
		Recorder:  recorder,
		Config:    cfg,
	})
	return &fixture{orch: orch, store: store, svc: svc, approvals: approvals, recorder: recorder, client: client}
}

func TestGreetingFastPathSkipsLLM(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{textResponse("should not be used")}})

	reply, err := f.orch.Chat(context.Background(), "", "", "hi")
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "help you")
	assert.Empty(t, f.client.requests, "greeting must not reach the LLM")
	assert.NotEmpty(t, reply.SessionID)
}

func TestTrackingCodeFastPath(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{textResponse("unused")}})
	ctx := context.Background()

	// Place a real order to get a code to track.
	_, err := f.svc.AddToCart(ctx, "u-1", "cpu-ryzen-7600", 1)
	require.NoError(t, err)
	order, err := f.svc.CreateOrder(ctx, "u-1", "", "")
	require.NoError(t, err)

	reply, err := f.orch.Chat(ctx, "", "", order.TrackingCode)
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, order.TrackingCode)
	assert.Contains(t, reply.Answer, commerce.OrderStatusPlaced)
	assert.Empty(t, f.client.requests, "bare tracking code must not reach the LLM")
}

func TestTrackingCodeFastPathUnknownCode(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{textResponse("unused")}})

	reply, err := f.orch.Chat(context.Background(), "", "", "TH-NOSUCHCODE")
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "couldn't find")
}

func TestGeneralToolLoop(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		toolResponse(tools.ToolSearchProducts, map[string]any{"query": "ram"}),
		textResponse("I found Corsair Vengeance 16GB for $64.99."),
	}})

	reply, err := f.orch.Chat(context.Background(), "", "", "what memory do you have in stock?")
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "Corsair")
	require.Len(t, f.client.requests, 2)

	// Second request must carry the tool result back to the model.
	last := f.client.requests[1].Messages[len(f.client.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "Tool result (search_products)")
	assert.Contains(t, last.Content, "Vengeance")
}

func TestToolLoopIterationBound(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		toolResponse(tools.ToolSearchProducts, map[string]any{"query": "ram"}),
	}})

	reply, err := f.orch.Chat(context.Background(), "", "", "what do you sell?")
	require.NoError(t, err)
	assert.Equal(t, exhaustedLoopMessage, reply.Answer)
	assert.Len(t, f.client.requests, 10, "loop must stop at the iteration cap")
}

func TestTimeoutProducesApology(t *testing.T) {
	client := &scriptedLLM{
		responses: []llm.CompletionResponse{textResponse("late")},
		delay:     200 * time.Millisecond,
	}
	f := newFixture(t, client)
	f.orch.requestTimeout = 50 * time.Millisecond

	reply, err := f.orch.Chat(context.Background(), "", "", "tell me about your store")
	require.NoError(t, err)
	assert.Equal(t, timeoutMessage, reply.Answer)
}

func TestResponseCacheHit(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		textResponse("We're open 9 to 6, Monday through Saturday."),
	}})
	ctx := context.Background()

	first, err := f.orch.Chat(ctx, "", "", "what are your opening hours?")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := f.orch.Chat(ctx, "", "", "What are your opening hours?")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Len(t, f.client.requests, 1, "second ask must come from cache")
}

func TestCacheSkipsStatefulInputs(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		textResponse("Your cart has one item."),
	}})
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, "", "", "what's in my cart?")
	require.NoError(t, err)
	_, err = f.orch.Chat(ctx, "", "", "what's in my cart?")
	require.NoError(t, err)
	assert.Len(t, f.client.requests, 2, "cart questions must never be cached")
}

func TestCacheSkipsLoggedInUsers(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		textResponse("We ship worldwide."),
	}})
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, "s-1", "u-1", "do you ship internationally?")
	require.NoError(t, err)
	_, err = f.orch.Chat(ctx, "s-2", "", "do you ship internationally?")
	require.NoError(t, err)
	assert.Len(t, f.client.requests, 2, "logged-in answers must not seed the cache")
}

func TestCartGuardSubstitutesStoredResult(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		toolResponse(tools.ToolViewCart, map[string]any{}),
		textResponse("You have Corsair Vengeance in your cart."),
		textResponse("Your cart is empty."),
	}})
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "u-1", "ram-corsair-16", 1)
	require.NoError(t, err)

	// First turn runs the cart tool and snapshots its result.
	first, err := f.orch.Chat(ctx, "sess-guard", "u-1", "show me my cart please")
	require.NoError(t, err)
	assert.Contains(t, first.Answer, "Corsair")

	// Second turn: model hallucinates an empty cart; guard substitutes.
	second, err := f.orch.Chat(ctx, "sess-guard", "u-1", "so what's in my cart?")
	require.NoError(t, err)
	assert.Contains(t, second.Answer, "actually contains")
	assert.Contains(t, second.Answer, "Vengeance")
}

func TestFailedTurnCountedOnce(t *testing.T) {
	f := newFixture(t, &scriptedLLM{err: errors.New("backend unavailable")})

	reply, err := f.orch.Chat(context.Background(), "", "", "tell me about shipping speeds")
	require.NoError(t, err)
	assert.Equal(t, failureMessage, reply.Answer)

	families, err := f.recorder.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "assistant_turns_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, total, "a failed turn increments the counter once")
}

func TestSessionLocksArePruned(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{textResponse("We ship fast.")}})

	_, err := f.orch.Chat(context.Background(), "sess-a", "", "how fast is shipping?")
	require.NoError(t, err)
	_, err = f.orch.Chat(context.Background(), "sess-b", "", "how fast is shipping?")
	require.NoError(t, err)

	f.orch.lockMu.Lock()
	defer f.orch.lockMu.Unlock()
	assert.Empty(t, f.orch.locks, "idle session locks are released")
}

func TestCartGuardAppliesWithinSameTurn(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		toolResponse(tools.ToolViewCart, map[string]any{}),
		textResponse("Your cart is empty."),
	}})
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "u-1", "ram-corsair-16", 1)
	require.NoError(t, err)

	// The cart tool runs and the model still claims an empty cart in the
	// same turn; the guard must consult the snapshot captured moments ago.
	reply, err := f.orch.Chat(ctx, "sess-guard-turn", "u-1", "what's in my cart?")
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "actually contains")
	assert.Contains(t, reply.Answer, "Vengeance")
}

func TestLoginRequiredSurfacesToModel(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		toolResponse(tools.ToolViewCart, map[string]any{}),
		textResponse("Please log in to view your cart."),
	}})

	reply, err := f.orch.Chat(context.Background(), "", "", "can you show my cart contents?")
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "log in")

	last := f.client.requests[1].Messages[len(f.client.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "login_required")
}

func TestApprovalRaisedForFlaggedTool(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		toolResponse(tools.ToolClearCart, map[string]any{}),
		textResponse("Done, everything has been removed."),
	}})
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "u-1", "ram-corsair-16", 1)
	require.NoError(t, err)

	reply, err := f.orch.Chat(ctx, "", "u-1", "please wipe everything out of the basket")
	require.NoError(t, err)
	require.NotEmpty(t, reply.ApprovalID)

	req, err := f.approvals.Get(reply.ApprovalID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, req.Status)
	assert.Equal(t, tools.ToolClearCart, req.Action)
}

func TestApprovalRaisedForSensitiveAnswer(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		textResponse("Sure, I will place order for you right away."),
	}})

	reply, err := f.orch.Chat(context.Background(), "", "", "go ahead with it then")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.ApprovalID)
}

func TestCheckoutFlowThroughChat(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{textResponse("unused")}})
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "u-1", "cpu-ryzen-7600", 1)
	require.NoError(t, err)
	_, err = f.svc.AddAddress(ctx, commerce.Address{UserID: "u-1", Label: "Home", Street: "1 Main St", City: "Bangkok", Zip: "10110", Country: "TH"})
	require.NoError(t, err)

	reply, err := f.orch.Chat(ctx, "sess-co", "u-1", "proceed to checkout")
	require.NoError(t, err)
	assert.Equal(t, string(flow.DecisionCheckoutEntry), reply.Route)
	assert.Contains(t, reply.Answer, "Home")

	reply, err = f.orch.Chat(ctx, "sess-co", "u-1", "1")
	require.NoError(t, err)
	assert.Equal(t, string(flow.DecisionCheckout), reply.Route)
	assert.Contains(t, strings.ToLower(reply.Answer), "coupon")

	reply, err = f.orch.Chat(ctx, "sess-co", "u-1", "skip")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(reply.Answer), "review")

	reply, err = f.orch.Chat(ctx, "sess-co", "u-1", "yes")
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "TH-")

	// Flow must be fully reset afterwards.
	sess, err := f.store.Load(ctx, "sess-co")
	require.NoError(t, err)
	assert.Equal(t, flow.KindNone, sess.Flow.Active)
	assert.Empty(t, f.client.requests, "deterministic checkout must not call the LLM")
}

func TestBuilderFlowThroughChat(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{textResponse("unused")}})
	ctx := context.Background()

	reply, err := f.orch.Chat(ctx, "sess-pc", "u-1", "help me build a pc")
	require.NoError(t, err)
	assert.Equal(t, string(flow.DecisionBuilderEntry), reply.Route)
	assert.Contains(t, strings.ToLower(reply.Answer), "ram")

	reply, err = f.orch.Chat(ctx, "sess-pc", "u-1", "1")
	require.NoError(t, err)
	assert.Equal(t, string(flow.DecisionBuilder), reply.Route)

	sess, err := f.store.Load(ctx, "sess-pc")
	require.NoError(t, err)
	assert.Equal(t, flow.KindPCBuilder, sess.Flow.Active)
	assert.Equal(t, flow.BuilderStepSSD, sess.Flow.BuilderStep)
}

func TestSessionHistoryPersistsAcrossTurns(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		textResponse("We stock DDR4 and DDR5 memory."),
	}})
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, "sess-h", "", "what memory types do you stock?")
	require.NoError(t, err)

	sess, err := f.store.Load(ctx, "sess-h")
	require.NoError(t, err)
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, persistence.RoleUser, sess.Turns[0].Role)
	assert.Equal(t, persistence.RoleAssistant, sess.Turns[1].Role)
}

func TestPriorTurnCarriedIntoPrompt(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		textResponse("The Ryzen 5 7600 is a great mid-range pick."),
		textResponse("It draws about 65W."),
	}})
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, "sess-p", "", "which mid-range CPU do you recommend?")
	require.NoError(t, err)
	_, err = f.orch.Chat(ctx, "sess-p", "", "how much power does it draw?")
	require.NoError(t, err)

	second := f.client.requests[1].Messages
	var sawPrior bool
	for _, m := range second {
		if m.Role == llm.RoleAssistant && strings.Contains(m.Content, "Ryzen 5 7600") {
			sawPrior = true
		}
	}
	assert.True(t, sawPrior, "previous exchange must be in the prompt")
}

func TestStreamChatEmitsChunks(t *testing.T) {
	f := newFixture(t, &scriptedLLM{responses: []llm.CompletionResponse{
		textResponse("We ship within three days."),
	}})

	events := f.orch.StreamChat(context.Background(), "", "", "how fast is delivery?")

	var types []string
	var content strings.Builder
	var complete string
	for ev := range events {
		types = append(types, ev.Type)
		switch ev.Type {
		case EventContent:
			content.WriteString(ev.Data)
		case EventComplete:
			complete = ev.Data
		}
	}

	require.NotEmpty(t, types)
	assert.Equal(t, EventStatus, types[0])
	assert.Equal(t, EventComplete, types[len(types)-1])
	assert.Equal(t, "We ship within three days.", complete)
	assert.Equal(t, "We ship within three days. ", content.String())
}
