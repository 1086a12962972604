package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/flowfsm/errors"
	"github.com/amp-labs/flowfsm/statemachine"
	"github.com/spf13/cobra"
)

type acceptFlags struct {
	workflow string
	verbose  bool
	workers  int
}

// acceptResult is the outcome of replaying one log file.
type acceptResult struct {
	path     string
	workflow string
	ok       bool
	stale    bool
	output   bytes.Buffer
	err      error
}

func newAcceptCmd(a *app) *cobra.Command {
	var flags acceptFlags

	cmd := &cobra.Command{
		Use:   "accept LOG...",
		Short: "Verify captured execution logs against their workflow graphs",
		Long: "Replays each log file without running any handler. The workflow is taken from " +
			"the log document unless --workflow is given. Files are verified concurrently.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers := flags.workers
			if workers <= 0 {
				workers = a.settings.Workers
			}

			results := a.acceptFiles(cmd.Context(), args, flags, workers)

			return reportAcceptance(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVarP(&flags.workflow, "workflow", "w", "", "workflow name or path for every log")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print every verified transition")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "number of logs verified in parallel (default FLOWFSM_ACCEPT_WORKERS)")

	return cmd
}

// graphCache builds each workflow graph once and shares it between workers.
type graphCache struct {
	app *app

	mu     sync.Mutex
	graphs map[string]*statemachine.Graph
}

func (c *graphCache) get(pathOrName string) (*statemachine.Graph, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if graph, ok := c.graphs[pathOrName]; ok {
		return graph, nil
	}

	_, graph, err := c.app.loadGraph(pathOrName)
	if err != nil {
		return nil, err
	}

	c.graphs[pathOrName] = graph

	return graph, nil
}

func (a *app) acceptFiles(ctx context.Context, paths []string, flags acceptFlags, workers int) []*acceptResult {
	cache := &graphCache{app: a, graphs: make(map[string]*statemachine.Graph)}

	pool := pond.NewResultPool[*acceptResult](workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()

	for _, path := range paths {
		group.Submit(func() *acceptResult {
			return acceptFile(ctx, cache, path, flags)
		})
	}

	results, err := group.Wait()
	if err != nil {
		// Tasks never fail; an error here means the context was cancelled.
		out := make([]*acceptResult, len(paths))
		for i, path := range paths {
			out[i] = &acceptResult{path: path, err: err}
		}

		return out
	}

	return results
}

func acceptFile(ctx context.Context, cache *graphCache, path string, flags acceptFlags) *acceptResult {
	result := &acceptResult{path: path}

	doc, err := statemachine.LoadLog(path)
	if err != nil {
		result.err = err

		return result
	}

	result.workflow = flags.workflow
	if result.workflow == "" {
		result.workflow = doc.Workflow
	}

	if result.workflow == "" {
		result.err = fmt.Errorf("%w: %s records no workflow, use --workflow", errUsage, path)

		return result
	}

	graph, err := cache.get(result.workflow)
	if err != nil {
		result.err = err

		return result
	}

	result.stale = doc.Fingerprint != "" && doc.Fingerprint != graph.Fingerprint()

	opts := statemachine.VerifyOptions{Workflow: result.workflow}
	if flags.verbose {
		opts.Output = &result.output
	}

	result.err = statemachine.Verify(ctx, graph, doc.Entries, opts)
	result.ok = result.err == nil

	return result
}

func reportAcceptance(w io.Writer, results []*acceptResult) error {
	var failed errors.Collection

	for _, result := range results {
		_, _ = result.output.WriteTo(w)

		switch {
		case result.ok && result.stale:
			fmt.Fprintf(w, "PASS %s (%s, recorded against a different graph)\n", result.path, result.workflow)
		case result.ok:
			fmt.Fprintf(w, "PASS %s (%s)\n", result.path, result.workflow)
		default:
			fmt.Fprintf(w, "FAIL %s: %v\n", result.path, result.err)
			failed.Add(fmt.Errorf("%w: %s: %w", errRejected, result.path, result.err))
		}
	}

	fmt.Fprintf(w, "%d of %d logs accepted\n", len(results)-failed.Len(), len(results))

	return failed.GetError()
}
