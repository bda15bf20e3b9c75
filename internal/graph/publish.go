package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/efebarandurmaz/sikuliflow/internal/library"
)

// Publish stores every definition of lib under project.
func Publish(ctx context.Context, repo Repository, project string, lib *library.Library) error {
	defs := lib.List()
	if err := repo.StoreLibrary(ctx, project, defs); err != nil {
		return fmt.Errorf("publish %s: %w", project, err)
	}
	return nil
}

// Mirror republishes lib after each change until the returned cancel func
// is called. Failures are logged and the next change retries.
func Mirror(ctx context.Context, repo Repository, project string, lib *library.Library, log *slog.Logger) (cancel func()) {
	return lib.Subscribe(func(ev library.Event) {
		if err := Publish(ctx, repo, project, lib); err != nil {
			log.Warn("library mirror failed", "project", project, "def", ev.Def.ID, "error", err)
			return
		}
		log.Debug("library mirrored", "project", project, "def", ev.Def.ID, "functions", lib.Len())
	})
}
