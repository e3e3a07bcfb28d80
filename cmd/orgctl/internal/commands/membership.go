package commands

import (
	"context"
	"fmt"

	"orgconsole/internal/platform/models"
)

type BlockOrgCmd struct {
	Org     string `arg:"" help:"Organization ID"`
	Unblock bool   `help:"Lift the block instead of setting it"`
}

func (c *BlockOrgCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.members.SetOrganizationBlock(ctx, globals.Actor, c.Org, !c.Unblock); err != nil {
		return err
	}
	fmt.Fprintf(globals.out(), "organization %s blocked=%t\n", c.Org, !c.Unblock)
	return nil
}

type BlockMemberCmd struct {
	Membership string `arg:"" help:"Membership ID"`
	Unblock    bool   `help:"Lift the block instead of setting it"`
}

func (c *BlockMemberCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.members.SetMembershipBlock(ctx, globals.Actor, c.Membership, !c.Unblock); err != nil {
		return err
	}
	fmt.Fprintf(globals.out(), "membership %s blocked=%t\n", c.Membership, !c.Unblock)
	return nil
}

type AddMemberCmd struct {
	Org   string `arg:"" help:"Organization ID"`
	Email string `arg:"" help:"Email of an existing principal"`
	Role  string `help:"Role to grant (Admin or Member)" default:"Member" enum:"Admin,Member"`
}

func (c *AddMemberCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	m, err := e.members.AddMember(ctx, globals.Actor, c.Org, c.Email, models.Role(c.Role))
	if err != nil {
		return err
	}
	return printJSON(globals.out(), m)
}

type RemoveMemberCmd struct {
	Membership string `arg:"" help:"Membership ID"`
}

func (c *RemoveMemberCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open()
	if err != nil {
		return err
	}
	defer e.Close()

	removal, err := e.members.RemoveMembership(ctx, globals.Actor, c.Membership)
	if err != nil {
		return err
	}
	return printJSON(globals.out(), removal)
}
