package commands

import (
	"context"
	"fmt"

	"orgconsole/internal/platform/database"
)

type SeedCmd struct{}

func (s *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := database.Migrate(ctx, e.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := database.Seed(ctx, e.db, e.cfg.Seed); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(globals.out(), "seeded %d plans and the default organization %s\n", len(e.cfg.Seed.Plans), database.DefaultOrganizationID)
	return nil
}
