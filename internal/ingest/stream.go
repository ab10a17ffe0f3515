package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// StreamEvent is one unit of a streaming search. Exactly one terminal
// event (Done or Err set) closes every stream, including failed ones.
type StreamEvent struct {
	Result *Result
	Err    error
	Done   bool
}

// SearchStream runs the pipeline like Search but emits each derived
// payload as soon as it is computed: local results first, then freshly
// fetched ones. A record is only ever emitted after its batch has been
// persisted and indexed, so consumer disconnection mid-stream never
// implies unpersisted state. The returned channel is closed after the
// terminal event.
func (c *Coordinator) SearchStream(ctx context.Context, query string, maxResults int) <-chan StreamEvent {
	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		if err := c.stream(ctx, query, maxResults, out); err != nil {
			c.emit(ctx, out, StreamEvent{Err: err})
			return
		}
		c.emit(ctx, out, StreamEvent{Done: true})
	}()
	return out
}

func (c *Coordinator) stream(ctx context.Context, query string, maxResults int, out chan<- StreamEvent) error {
	if err := validateQuery(query); err != nil {
		return err
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	results, err := c.gatherStream(ctx, query, maxResults, out, &streamState{})
	if err != nil {
		return err
	}
	if _, err := c.appendHistory(ctx, query, results); err != nil {
		return err
	}
	return nil
}

type streamState struct {
	emitted int
}

// gatherStream mirrors gather but interleaves emission: each local
// record is derived and sent before the upstream fetch starts, and each
// fresh record is sent after the whole fresh batch is durable.
func (c *Coordinator) gatherStream(ctx context.Context, query string, maxResults int, out chan<- StreamEvent, st *streamState) ([]Result, error) {
	local, err := c.localLookup(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	var all []Result
	localResults, err := c.deriveAll(ctx, &mergedBatch{records: local, comments: map[string][]string{}})
	if err != nil {
		return nil, err
	}
	for i := range localResults {
		if !c.emit(ctx, out, StreamEvent{Result: &localResults[i]}) {
			return nil, ctx.Err()
		}
		st.emitted++
		all = append(all, localResults[i])
	}

	if len(local) >= maxResults {
		return all, nil
	}

	fresh, comments, upstreamErr := c.fetchAndPersist(ctx, query, maxResults, local)
	if upstreamErr != nil {
		if st.emitted == 0 {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, upstreamErr)
		}
		log.Warn().Err(upstreamErr).Str("query", query).Msg("Upstream failed mid-stream, ending with local results")
		return all, nil
	}

	if room := maxResults - len(local); len(fresh) > room {
		fresh = fresh[:room]
	}
	freshResults, err := c.deriveAll(ctx, &mergedBatch{records: fresh, comments: comments})
	if err != nil {
		return nil, err
	}
	for i := range freshResults {
		if !c.emit(ctx, out, StreamEvent{Result: &freshResults[i]}) {
			return nil, ctx.Err()
		}
		st.emitted++
		all = append(all, freshResults[i])
	}
	return all, nil
}

// emit sends an event unless the consumer is gone.
func (c *Coordinator) emit(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
