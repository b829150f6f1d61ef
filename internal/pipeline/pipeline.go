// Package pipeline routes incoming events through consent gating,
// attribution resolution and, for conversions, order assembly, validation
// and dispatch.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/stape-io/awin-conversion-api-tag/internal/audit"
	"github.com/stape-io/awin-conversion-api-tag/internal/awin"
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/consent"
	"github.com/stape-io/awin-conversion-api-tag/internal/cookies"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
	"github.com/stape-io/awin-conversion-api-tag/internal/order"
)

// Outcome is the exactly-once completion signal of an invocation.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
	// OutcomeUpstreamFailure marks a well-formed conversion the remote
	// system did not accept.
	OutcomeUpstreamFailure
)

// Result carries the caller signal plus any cookie writes the page-view
// path produced.
type Result struct {
	Outcome Outcome
	Cookies []*fiber.Cookie
}

type handlerFunc func(ctx context.Context, tag *config.Tag, ev *event.Context) Result

// Pipeline processes one event end-to-end. Stateless between invocations;
// the only cross-invocation state lives in the visitor's cookies and the
// remote system.
type Pipeline struct {
	client      *awin.Client
	audit       *audit.Logger
	logger      *slog.Logger
	containerID string

	handlers map[event.Kind]handlerFunc
	inflight sync.WaitGroup
}

// New wires the pipeline and its closed event-kind dispatch table.
func New(client *awin.Client, auditLogger *audit.Logger, logger *slog.Logger, containerID string) *Pipeline {
	p := &Pipeline{
		client:      client,
		audit:       auditLogger,
		logger:      logger,
		containerID: containerID,
	}
	p.handlers = map[event.Kind]handlerFunc{
		event.KindPageView:   p.handlePageView,
		event.KindConversion: p.handleConversion,
	}
	return p
}

// Handle runs one event through the pipeline. The global execution gate
// short-circuits to a no-op success; an unknown event kind is a failure.
// Under the optimistic scenario the conversion outcome is signaled before
// the remote call resolves.
func (p *Pipeline) Handle(ctx context.Context, tag *config.Tag, ev *event.Context) Result {
	if !consent.ExecutionAllowed(tag, ev) {
		p.logger.Debug("Execution gate closed, skipping event",
			slog.String("trace_id", ev.TraceID))
		return Result{Outcome: OutcomeSuccess}
	}

	handler, ok := p.handlers[ev.Kind]
	if !ok {
		p.logger.Warn("Unknown event kind", slog.String("kind", string(ev.Kind)))
		return Result{Outcome: OutcomeFailure}
	}
	return handler(ctx, tag, ev)
}

// Drain waits for in-flight optimistic dispatches. Called on shutdown and
// by tests.
func (p *Pipeline) Drain() {
	p.inflight.Wait()
}

// handlePageView applies the cookie persistence policy. Always succeeds;
// consent-blocked is a no-op path to success.
func (p *Pipeline) handlePageView(_ context.Context, tag *config.Tag, ev *event.Context) Result {
	writes := cookies.PageViewWrites(tag, ev)
	return Result{Outcome: OutcomeSuccess, Cookies: writes}
}

// handleConversion assembles and validates the order, then dispatches it.
func (p *Pipeline) handleConversion(ctx context.Context, tag *config.Tag, ev *event.Context) Result {
	req := order.Assemble(tag, ev, p.containerID, p.logger)

	if verr := order.Validate(req); verr != nil {
		p.audit.Log(tag, audit.Record{
			Name:      audit.TagName,
			Type:      audit.TypeMessage,
			TraceID:   ev.TraceID,
			EventName: string(ev.Kind),
			Message:   "Request was not sent.",
			Reason:    verr.Reason(),
		})
		return Result{Outcome: OutcomeFailure}
	}

	body, err := json.Marshal(req)
	if err != nil {
		p.logger.Error("Failed to serialize order", slog.Any("error", err))
		return Result{Outcome: OutcomeFailure}
	}

	p.audit.Log(tag, audit.Record{
		Name:          audit.TagName,
		Type:          audit.TypeRequest,
		TraceID:       ev.TraceID,
		EventName:     string(ev.Kind),
		RequestMethod: http.MethodPost,
		RequestURL:    p.client.EndpointURL(tag.AdvertiserID),
		RequestBody:   req,
	})

	if config.IsUIFieldTrue(tag.UseOptimisticScenario) {
		// Signal success immediately; the response is still observed and
		// audited but produces no further caller signal.
		p.inflight.Add(1)
		go func() {
			defer p.inflight.Done()
			p.dispatch(context.WithoutCancel(ctx), tag, ev, body)
		}()
		return Result{Outcome: OutcomeSuccess}
	}

	resp := p.dispatch(ctx, tag, ev, body)
	if resp == nil || !resp.Success() {
		return Result{Outcome: OutcomeUpstreamFailure}
	}
	return Result{Outcome: OutcomeSuccess}
}

// dispatch issues the outbound call and audits its outcome. A transport
// error is audited as a response with no status code.
func (p *Pipeline) dispatch(ctx context.Context, tag *config.Tag, ev *event.Context, body []byte) *awin.Response {
	resp, err := p.client.SendOrders(ctx, tag.AdvertiserID, tag.APIKey, body)
	if err != nil {
		p.audit.Log(tag, audit.Record{
			Name:         audit.TagName,
			Type:         audit.TypeResponse,
			TraceID:      ev.TraceID,
			EventName:    string(ev.Kind),
			ResponseBody: err.Error(),
		})
		return nil
	}

	p.audit.Log(tag, audit.Record{
		Name:               audit.TagName,
		Type:               audit.TypeResponse,
		TraceID:            ev.TraceID,
		EventName:          string(ev.Kind),
		ResponseStatusCode: resp.StatusCode,
		ResponseHeaders:    resp.Headers,
		ResponseBody:       string(resp.Body),
	})
	return resp
}
