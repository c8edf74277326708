// Package debate drives a multi-provider debate: rounds of concurrent
// provider turns over a shared question, a termination policy, and a final
// synthesis turn, with every call metered against the pricing table.
package debate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/meter"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/pricing"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider"
)

// ErrAllProvidersFailed marks a round in which no provider produced a reply.
var ErrAllProvidersFailed = errors.New("all providers failed")

const (
	defaultMaxRounds       = 2
	defaultProviderTimeout = 60 * time.Second
)

// SimilarityFunc scores how close two replies are, in [0, 1].
type SimilarityFunc func(a, b string) float64

// Config holds everything the engine needs. All policy knobs are injected;
// nothing is hard-coded in the orchestrator.
type Config struct {
	// Providers participate in debates, in registration order.
	Providers []provider.Adapter

	// Pricing is the read-only price table used for cost metering.
	Pricing *pricing.Table

	// MaxRounds bounds the number of debate rounds (default 2).
	MaxRounds int

	// ProviderTimeout bounds each individual provider call (default 60s).
	ProviderTimeout time.Duration

	// ConvergenceThreshold ends the debate early when every pair of replies
	// in a round scores at least this similar. Zero disables the check.
	ConvergenceThreshold float64

	// Similarity scores reply closeness; defaults to TermOverlap.
	Similarity SimilarityFunc

	// Judge synthesizes the final answer. When nil, the first provider that
	// succeeded in the last round is used.
	Judge provider.Adapter

	Logger *slog.Logger
}

// Engine orchestrates debate sessions. It is safe for concurrent use;
// distinct sessions share nothing but the read-only pricing table.
type Engine struct {
	providers  []provider.Adapter
	pricing    *pricing.Table
	maxRounds  int
	timeout    time.Duration
	threshold  float64
	similarity SimilarityFunc
	judge      provider.Adapter
	logger     *slog.Logger
}

// New validates the configuration and creates an engine.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Providers) == 0 {
		return nil, errors.New("debate engine needs at least one provider")
	}
	if cfg.Pricing == nil {
		return nil, errors.New("debate engine needs a pricing table")
	}
	e := &Engine{
		providers:  cfg.Providers,
		pricing:    cfg.Pricing,
		maxRounds:  cfg.MaxRounds,
		timeout:    cfg.ProviderTimeout,
		threshold:  cfg.ConvergenceThreshold,
		similarity: cfg.Similarity,
		judge:      cfg.Judge,
		logger:     cfg.Logger,
	}
	if e.maxRounds <= 0 {
		e.maxRounds = defaultMaxRounds
	}
	if e.timeout <= 0 {
		e.timeout = defaultProviderTimeout
	}
	if e.similarity == nil {
		e.similarity = TermOverlap
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// NewSession creates a pending session for the given question with all
// registered providers.
func (e *Engine) NewSession(question string) *model.Session {
	refs := make([]model.ProviderRef, len(e.providers))
	for i, p := range e.providers {
		refs[i] = model.ProviderRef{Name: p.Name(), Model: p.Model()}
	}
	return &model.Session{
		ID:        uuid.New().String(),
		Question:  question,
		Providers: refs,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Debate runs a full multi-provider debate for the question and returns the
// finished session. The session carries the outcome even when err is non-nil.
func (e *Engine) Debate(ctx context.Context, question string) (*model.Session, error) {
	s := e.NewSession(question)
	err := e.Run(ctx, s)
	return s, err
}

// Ask runs the one-shot path: a single named provider, one round, no
// synthesis turn.
func (e *Engine) Ask(ctx context.Context, providerName, question string) (*model.Session, error) {
	var chosen provider.Adapter
	for _, p := range e.providers {
		if p.Name() == providerName {
			chosen = p
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("provider %q not registered", providerName)
	}

	s := &model.Session{
		ID:        uuid.New().String(),
		Question:  question,
		Providers: []model.ProviderRef{{Name: chosen.Name(), Model: chosen.Model()}},
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	err := e.run(ctx, s, []provider.Adapter{chosen}, 1, false)
	return s, err
}

// Run drives a pending session to a terminal state. Re-running a session
// that is already terminal returns the stored transcript unchanged and
// performs zero provider calls.
func (e *Engine) Run(ctx context.Context, s *model.Session) error {
	return e.run(ctx, s, e.providers, e.maxRounds, true)
}

func (e *Engine) run(ctx context.Context, s *model.Session, adapters []provider.Adapter, maxRounds int, synthesize bool) error {
	if s.Status.Terminal() {
		return nil
	}
	if s.Status != model.StatusPending {
		return fmt.Errorf("session %s is mid-flight (%s), refusing to re-enter", s.ID, s.Status)
	}

	m := meter.New(e.pricing)

	for round := 1; round <= maxRounds; round++ {
		if err := s.Advance(model.StatusRoundInProgress); err != nil {
			return err
		}
		s.Round = round

		results := e.runRound(ctx, s, adapters, round)

		succeeded, err := e.appendRound(s, m, results)
		if err != nil {
			// Pricing gaps are configuration defects: fail the session.
			return e.fail(s, err)
		}

		if ctx.Err() != nil {
			return e.cancel(s, ctx.Err())
		}

		if succeeded == 0 {
			return e.fail(s, fmt.Errorf("round %d: %w", round, ErrAllProvidersFailed))
		}

		if err := s.Advance(model.StatusRoundComplete); err != nil {
			return err
		}

		// Max-round bound wins over convergence: both guarantee progress,
		// the bound also caps cost.
		if round >= maxRounds {
			break
		}
		if e.converged(s.Transcript.Round(round)) {
			e.logger.Info("debate converged early", "session", s.ID, "round", round)
			break
		}
	}

	if !synthesize {
		finish(s)
		return s.Advance(model.StatusComplete)
	}

	if err := s.Advance(model.StatusSynthesizing); err != nil {
		return err
	}
	if err := e.synthesize(ctx, s, m); err != nil {
		if ctx.Err() != nil {
			return e.cancel(s, ctx.Err())
		}
		return e.fail(s, fmt.Errorf("synthesis: %w", err))
	}

	finish(s)
	return s.Advance(model.StatusComplete)
}

// roundResult pairs an adapter with the outcome of its call for one round.
type roundResult struct {
	adapter provider.Adapter
	reply   provider.Reply
	err     error
}

// runRound fans out one generation call per provider and waits for all of
// them; each call carries its own timeout so a slow provider cannot stall
// the others. Results come back in registration order.
func (e *Engine) runRound(ctx context.Context, s *model.Session, adapters []provider.Adapter, round int) []roundResult {
	history := make([]model.Turn, len(s.Transcript))
	copy(history, s.Transcript)

	results := make([]roundResult, len(adapters))
	var wg sync.WaitGroup

	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a provider.Adapter) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			reply, err := a.Generate(callCtx, provider.Request{
				Question:     s.Question,
				Instructions: debaterInstructions(round),
				History:      history,
			})
			results[i] = roundResult{adapter: a, reply: reply, err: err}
		}(i, a)
	}
	wg.Wait()

	return results
}

// appendRound turns round results into transcript turns and meters the
// successful ones. A failed provider degrades to a synthetic failure turn;
// it never aborts the round.
func (e *Engine) appendRound(s *model.Session, m *meter.Meter, results []roundResult) (succeeded int, err error) {
	for _, res := range results {
		if res.err != nil {
			perr := provider.Classify(res.adapter.Name(), res.err)
			e.logger.Warn("provider turn failed",
				"session", s.ID,
				"round", s.Round,
				"provider", res.adapter.Name(),
				"kind", perr.Kind.String(),
				"error", res.err,
			)
			s.Transcript = append(s.Transcript, model.Turn{
				ID:          uuid.New().String(),
				Round:       s.Round,
				Provider:    res.adapter.Name(),
				Model:       res.adapter.Model(),
				Role:        model.RoleDebater,
				FailureKind: perr.Kind.String(),
				Timestamp:   time.Now().UTC(),
			})
			continue
		}

		turn := model.Turn{
			ID:           uuid.New().String(),
			Round:        s.Round,
			Provider:     res.adapter.Name(),
			Model:        res.adapter.Model(),
			Role:         model.RoleDebater,
			Text:         res.reply.Text,
			InputTokens:  res.reply.InputTokens,
			OutputTokens: res.reply.OutputTokens,
			Timestamp:    time.Now().UTC(),
		}
		cost, err := meter.CostOf(e.pricing, turn)
		if err != nil {
			return succeeded, err
		}
		turn.CostUSD = cost
		if _, err := m.Record(turn); err != nil {
			return succeeded, err
		}
		s.Transcript = append(s.Transcript, turn)
		s.TotalCostUSD = m.Total()
		succeeded++
	}
	return succeeded, nil
}

// converged reports whether every pair of successful replies in the round
// meets the similarity threshold. With the check disabled, or fewer than two
// replies, the debate keeps going.
func (e *Engine) converged(roundTurns []model.Turn) bool {
	if e.threshold <= 0 {
		return false
	}
	var texts []string
	for _, t := range roundTurns {
		if !t.Failed() {
			texts = append(texts, t.Text)
		}
	}
	if len(texts) < 2 {
		return false
	}
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			if e.similarity(texts[i], texts[j]) < e.threshold {
				return false
			}
		}
	}
	return true
}

// synthesize asks the judge for the final answer and appends it as a judge
// turn.
func (e *Engine) synthesize(ctx context.Context, s *model.Session, m *meter.Meter) error {
	judge := e.pickJudge(s)
	if judge == nil {
		return errors.New("no provider available to judge")
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	history := make([]model.Turn, len(s.Transcript))
	copy(history, s.Transcript)

	reply, err := judge.Generate(callCtx, provider.Request{
		Question:     s.Question,
		Instructions: judgeInstructions(),
		History:      history,
	})
	if err != nil {
		return provider.Classify(judge.Name(), err)
	}

	turn := model.Turn{
		ID:           uuid.New().String(),
		Round:        s.Round,
		Provider:     judge.Name(),
		Model:        judge.Model(),
		Role:         model.RoleJudge,
		Text:         reply.Text,
		InputTokens:  reply.InputTokens,
		OutputTokens: reply.OutputTokens,
		Timestamp:    time.Now().UTC(),
	}
	cost, err := meter.CostOf(e.pricing, turn)
	if err != nil {
		return err
	}
	turn.CostUSD = cost
	if _, err := m.Record(turn); err != nil {
		return err
	}
	s.Transcript = append(s.Transcript, turn)
	s.TotalCostUSD = m.Total()
	return nil
}

// pickJudge prefers the configured judge, then the first provider with a
// successful turn in the final round, so a provider that failed all debate
// rounds is never asked to synthesize.
func (e *Engine) pickJudge(s *model.Session) provider.Adapter {
	if e.judge != nil {
		return e.judge
	}
	lastRound := s.Transcript.Round(s.Round)
	for _, p := range e.providers {
		for _, t := range lastRound {
			if t.Provider == p.Name() && !t.Failed() {
				return p
			}
		}
	}
	return nil
}

func (e *Engine) fail(s *model.Session, reason error) error {
	s.FailReason = reason.Error()
	finish(s)
	if err := s.Advance(model.StatusFailed); err != nil {
		return err
	}
	return reason
}

func (e *Engine) cancel(s *model.Session, reason error) error {
	s.FailReason = reason.Error()
	finish(s)
	if err := s.Advance(model.StatusCancelled); err != nil {
		return err
	}
	return reason
}

func finish(s *model.Session) {
	now := time.Now().UTC()
	s.CompletedAt = &now
}
