package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"orgconsole/internal/workers"
)

type AccessCmd struct {
	Email string `arg:"" help:"Principal email"`
}

func (c *AccessCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	principal, err := e.identity.LookupByEmail(ctx, c.Email)
	if err != nil {
		return err
	}
	state, err := e.resolver.Resolve(ctx, principal.ID)
	if err != nil {
		return err
	}
	return printJSON(globals.out(), state)
}

type OrgsCmd struct{}

func (c *OrgsCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	entries, err := e.members.ListDirectory(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(globals.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPLAN\tMEMBERS\tBLOCKED\tEXPIRATION")
	for _, entry := range entries {
		plan := "-"
		if entry.Plan != nil {
			plan = entry.Plan.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n", entry.Organization.ID, entry.Organization.Name, plan,
			entry.MemberCount, entry.Organization.IsBlocked, entry.Expiration)
	}
	return tw.Flush()
}

type ReconcileCmd struct{}

func (c *ReconcileCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	report, err := workers.NewReconciler(e.store, e.logger).Reconcile(ctx)
	if err != nil {
		return err
	}
	return printJSON(globals.out(), report)
}
