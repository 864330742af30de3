// Package orchestrator coordinates a conversation turn: routing to guided
// flows, running the general tool-calling loop, and persisting the session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopassist/pkg/approval"
	"shopassist/pkg/commerce"
	"shopassist/pkg/config"
	"shopassist/pkg/flow"
	"shopassist/pkg/llm"
	"shopassist/pkg/logx"
	"shopassist/pkg/metrics"
	"shopassist/pkg/persistence"
	"shopassist/pkg/tools"
)

const (
	timeoutMessage = "Sorry, I'm taking too long to respond. Please try again."
	failureMessage = "Sorry, something went wrong while handling that. Please try again."

	// Turns reloaded into the prompt for a general turn.
	promptHistoryTurns = 6
)

// Sensitive phrases in a final answer that raise an advisory review request
// even when no tool flagged one.
var sensitiveKeywords = []string{
	"delete", "remove all", "empty cart", "place order", "confirm order",
}

// Reply is the outcome of one processed turn.
type Reply struct {
	SessionID  string `json:"session_id"`
	Answer     string `json:"answer"`
	Route      string `json:"route"`
	ApprovalID string `json:"approval_id,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
}

// Orchestrator processes conversation turns. Safe for concurrent use; turns
// for the same session are serialized.
type Orchestrator struct {
	store     *persistence.Store
	registry  *tools.Registry
	client    llm.Client
	checkout  *flow.Checkout
	builder   *flow.Builder
	approvals *approval.Manager
	recorder  *metrics.Recorder
	cache     *responseCache
	logger    *logx.Logger

	requestTimeout time.Duration
	streamDeadline time.Duration
	maxIterations  int

	lockMu sync.Mutex
	locks  map[string]*sessionLock
}

// sessionLock serializes turns for one session. The refcount lets idle locks
// be dropped from the map instead of accumulating forever.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Options wires an Orchestrator's collaborators.
type Options struct {
	Store     *persistence.Store
	Registry  *tools.Registry
	Client    llm.Client
	Commerce  commerce.Service
	Approvals *approval.Manager
	Recorder  *metrics.Recorder
	Config    *config.Config
}

// New creates an Orchestrator from wired collaborators.
func New(opts Options) *Orchestrator {
	logger := logx.NewLogger("orchestrator")
	return &Orchestrator{
		store:          opts.Store,
		registry:       opts.Registry,
		client:         opts.Client,
		checkout:       flow.NewCheckout(opts.Commerce, logx.NewLogger("checkout")),
		builder:        flow.NewBuilder(opts.Commerce, opts.Client, logx.NewLogger("pcbuilder")),
		approvals:      opts.Approvals,
		recorder:       opts.Recorder,
		cache:          newResponseCache(time.Duration(opts.Config.Cache.TTL), opts.Config.Cache.MaxSize),
		logger:         logger,
		requestTimeout: time.Duration(opts.Config.LLM.RequestTimeout),
		streamDeadline: time.Duration(opts.Config.Server.StreamDeadline),
		maxIterations:  opts.Config.LLM.MaxIterations,
		locks:          make(map[string]*sessionLock),
	}
}

// Chat processes one inbound message for a session and returns the reply.
// An empty sessionID starts a new session.
func (o *Orchestrator) Chat(ctx context.Context, sessionID, userID, input string) (Reply, error) {
	if strings.TrimSpace(input) == "" {
		return Reply{}, errors.New("empty message")
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	unlock := o.lockSession(sessionID)
	defer unlock()

	sess, err := o.store.Load(ctx, sessionID)
	if errors.Is(err, persistence.ErrSessionNotFound) {
		sess = persistence.NewSession(sessionID, userID)
	} else if err != nil {
		return Reply{}, fmt.Errorf("failed to load session: %w", err)
	}
	if userID != "" {
		sess.UserID = userID
	}

	start := time.Now()
	route := flow.Route(&sess.Flow, input)
	reply := Reply{SessionID: sessionID, Route: string(route)}

	var answer string
	switch route {
	case flow.DecisionCheckoutEntry:
		answer, err = o.checkout.Enter(ctx, sess.UserID, &sess.Flow)
		o.recorder.ObserveFlowTransition("checkout", string(sess.Flow.CheckoutStep))
	case flow.DecisionCheckout:
		answer, err = o.checkout.Handle(ctx, sess.UserID, &sess.Flow, input)
		o.recorder.ObserveFlowTransition("checkout", string(sess.Flow.CheckoutStep))
	case flow.DecisionBuilderEntry:
		answer, err = o.builder.Enter(ctx, sess.UserID, &sess.Flow)
		o.recorder.ObserveFlowTransition("pc_builder", string(sess.Flow.BuilderStep))
	case flow.DecisionBuilder:
		answer, err = o.builder.Handle(ctx, sess.UserID, &sess.Flow, input)
		o.recorder.ObserveFlowTransition("pc_builder", string(sess.Flow.BuilderStep))
	default:
		answer, err = o.generalTurn(ctx, sess, input, &reply)
	}
	if err != nil {
		o.logger.Error("turn failed for session %s: %v", sessionID, err)
		answer = failureMessage
	}

	// Advisory review gate: tool-flagged actions are raised in the general
	// path; sensitive phrasing in any final answer is caught here.
	if reply.ApprovalID == "" && containsSensitiveKeyword(answer) {
		req := o.approvals.Raise(sessionID, "sensitive answer", input)
		o.recorder.IncApprovals()
		reply.ApprovalID = req.ID
	}

	sess.AppendTurn(persistence.RoleUser, input)
	sess.AppendTurn(persistence.RoleAssistant, answer)
	if saveErr := o.store.Save(ctx, sess); saveErr != nil {
		o.logger.Error("failed to save session %s: %v", sessionID, saveErr)
	}

	o.recorder.ObserveTurn(string(route), err == nil, time.Since(start))
	reply.Answer = answer
	return reply, nil
}

// generalTurn handles a message on the general path: fast paths, cache, then
// the bounded tool loop.
func (o *Orchestrator) generalTurn(ctx context.Context, sess *persistence.Session, input string, reply *Reply) (string, error) {
	if canned, ok := greetingReply(input); ok {
		return canned, nil
	}

	if code, ok := detectTrackingCode(input); ok {
		return o.trackOrderDirect(ctx, code), nil
	}

	contextSummary := summarizeContext(sess)
	skipCache := o.cache.shouldSkip(input)
	if skipCache {
		o.recorder.ObserveCache("skip")
	} else if cached, hit := o.cache.get(input, contextSummary); hit {
		o.recorder.ObserveCache("hit")
		reply.Cached = true
		return cached, nil
	} else {
		o.recorder.ObserveCache("miss")
	}

	messages := []llm.CompletionMessage{
		llm.NewSystemMessage(buildSystemPrompt(o.registry, sess.UserID, sess.Context[contextKeyLastCart])),
	}
	// A short prompting window keeps cost bounded; older turns survive only
	// through the session context summary.
	for _, turn := range sess.RecentTurns(promptHistoryTurns) {
		switch turn.Role {
		case persistence.RoleAssistant:
			messages = append(messages, llm.NewAssistantMessage(turn.Content))
		case persistence.RoleUser:
			messages = append(messages, llm.NewUserMessage(turn.Content))
		}
	}
	messages = append(messages, llm.NewUserMessage(input))

	execCtx := ctx
	if sess.UserID != "" {
		execCtx = context.WithValue(ctx, tools.UserIDContextKey, sess.UserID)
	}
	execCtx, cancel := context.WithTimeout(execCtx, o.requestTimeout)
	defer cancel()

	loop := &toolLoop{
		client:        o.client,
		registry:      o.registry,
		recorder:      o.recorder,
		logger:        o.logger,
		maxIterations: o.maxIterations,
	}
	result, err := loop.run(execCtx, messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return timeoutMessage, nil
		}
		return "", err
	}

	if result.cartSnapshot != "" {
		sess.Context[contextKeyLastCart] = result.cartSnapshot
	}
	// Guard against the freshest snapshot, including one captured during
	// this turn's tool executions.
	answer, _ := cartGuard(result.answer, input, sess.Context[contextKeyLastCart])

	if result.needsApproval {
		req := o.approvals.Raise(sess.ID, result.approvalAction, input)
		o.recorder.IncApprovals()
		reply.ApprovalID = req.ID
	}

	if !skipCache && sess.UserID == "" && !result.usedTools {
		o.cache.put(input, contextSummary, answer)
	}
	return answer, nil
}

// trackOrderDirect short-circuits a bare tracking code straight to the
// track_order tool.
func (o *Orchestrator) trackOrderDirect(ctx context.Context, code string) string {
	tool, err := o.registry.Get(tools.ToolTrackOrder)
	if err != nil {
		return failureMessage
	}
	out, err := tool.Exec(ctx, map[string]any{"tracking_code": code})
	if err != nil {
		o.logger.Error("direct tracking lookup failed: %v", err)
		return failureMessage
	}
	o.recorder.ObserveToolExec(tools.ToolTrackOrder, true)

	m, ok := out.(map[string]any)
	if !ok || m["success"] != true {
		return fmt.Sprintf("I couldn't find an order with tracking code %s. Please double-check the code.", code)
	}
	order, ok := m["order"].(commerce.Order)
	if !ok {
		return fmt.Sprintf("I found your order %s. Status: %v.", code, m["status"])
	}
	return fmt.Sprintf("Order %s is %s. Total: $%.2f with %d item(s).", order.TrackingCode, order.Status, order.Total, len(order.Items))
}

// lockSession acquires the per-session turn lock and returns its release
// function. The last releaser removes the lock from the map.
func (o *Orchestrator) lockSession(sessionID string) func() {
	o.lockMu.Lock()
	lock, ok := o.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		o.locks[sessionID] = lock
	}
	lock.refs++
	o.lockMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		o.lockMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(o.locks, sessionID)
		}
		o.lockMu.Unlock()
	}
}

// summarizeContext flattens the session context into a stable string for
// cache keying.
func summarizeContext(sess *persistence.Session) string {
	if len(sess.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sess.Context))
	for k := range sess.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(sess.Context[k])
		b.WriteString(";")
	}
	return b.String()
}

func containsSensitiveKeyword(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
