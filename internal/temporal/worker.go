package temporal

import (
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// StartWorker creates and starts a Temporal worker serving the compile
// workflow with acts.
func StartWorker(c client.Client, taskQueue string, acts *Activities) (worker.Worker, error) {
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflow(CompileProjectWorkflow)
	w.RegisterActivity(acts)

	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("starting worker: %w", err)
	}
	return w, nil
}
