package statemachine

import (
	"context"
	"fmt"
	"io"
)

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// Workflow names the workflow in metrics and traces.
	Workflow string
	// Output receives one line per verified transition. Nil disables it.
	Output io.Writer
}

// Verify replays a captured log against the graph without executing any
// handler. Every adjacent pair of entries must be reproduced by ResolveNext,
// except after an entry for a final state and after the last entry. An entry
// that recorded an error must be followed by the exception entry.
func Verify(ctx context.Context, graph *Graph, log Log, opts VerifyOptions) (err error) {
	ctx, span := startAcceptanceSpan(ctx, opts.Workflow, len(log))

	defer func() {
		acceptanceTotal.WithLabelValues(sanitizeWorkflow(opts.Workflow), outcomeOf(err)).Inc()
		finishSpan(span, err)
	}()

	if len(log) < 2 { //nolint:mnd // A transition needs two entries
		return fmt.Errorf("%w (got %d)", ErrInsufficientLog, len(log))
	}

	for i, entry := range log[:len(log)-1] {
		if err := ctx.Err(); err != nil {
			return err
		}

		if state, lookupErr := graph.State(entry.Name); lookupErr == nil && state.IsFinal() {
			continue
		}

		next := log[i+1]
		message := transitionMessage(graph, entry, next)

		if entry.Error != "" {
			if next.Name != ExceptionState {
				return &AcceptanceMismatchError{
					Index:     i,
					From:      entry.Name,
					Expected:  next.Name,
					Actual:    ExceptionState,
					Condition: entry.Return,
					Message:   message,
				}
			}

			writeTransition(opts.Output, message)

			continue
		}

		target, resolveErr := graph.ResolveNext(entry.Name, entry.Return)
		if resolveErr != nil {
			return &AcceptanceMismatchError{
				Index:     i,
				From:      entry.Name,
				Expected:  next.Name,
				Condition: entry.Return,
				Message:   message,
				Err:       resolveErr,
			}
		}

		if target.name != next.Name {
			return &AcceptanceMismatchError{
				Index:     i,
				From:      entry.Name,
				Expected:  next.Name,
				Actual:    target.name,
				Condition: entry.Return,
				Message:   message,
			}
		}

		writeTransition(opts.Output, message)
	}

	return nil
}

// transitionMessage renders a step in transition function notation, with the
// declaration positions of both states.
func transitionMessage(graph *Graph, from, to LogEntry) string {
	return fmt.Sprintf("δ: (C × Z[%d] → Z[%d]) = [%s] x [%s] → [%s]",
		graph.Index(from.Name), graph.Index(to.Name), exportCondition(from.Return), from.Name, to.Name)
}

func writeTransition(w io.Writer, message string) {
	if w == nil {
		return
	}

	_, _ = fmt.Fprintln(w, message)
}
