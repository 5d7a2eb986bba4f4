package entries

import "context"

// Effects accumulates ledger side effects (audit records, report-cache bumps,
// metric increments) raised inside a caller-owned transaction. The caller
// flushes after commit; on rollback the collector is simply dropped, so no
// effect of a posting that never happened ever runs.
type Effects struct {
	fns []func(context.Context)
}

type effectsKey struct{}

// DeferEffects returns a context that collects ledger side effects instead of
// running them inline. Callers that open their own transaction wrap it with
// this before posting and Flush once the transaction has committed.
func DeferEffects(ctx context.Context) (context.Context, *Effects) {
	e := &Effects{}
	return context.WithValue(ctx, effectsKey{}, e), e
}

// QueueEffect appends fn to the collector carried by ctx. It reports false
// when ctx carries no collector, in which case the caller runs fn directly.
func QueueEffect(ctx context.Context, fn func(context.Context)) bool {
	e, ok := ctx.Value(effectsKey{}).(*Effects)
	if !ok {
		return false
	}
	e.fns = append(e.fns, fn)
	return true
}

// Flush runs the collected effects in order and clears the collector.
func (e *Effects) Flush(ctx context.Context) {
	fns := e.fns
	e.fns = nil
	for _, fn := range fns {
		fn(ctx)
	}
}
