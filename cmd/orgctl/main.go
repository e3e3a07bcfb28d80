package main

import (
	"context"

	"github.com/alecthomas/kong"

	"orgconsole/cmd/orgctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Config       string                   `help:"Path to config file" default:"configs/config.yaml" type:"path"`
		Database     string                   `help:"Database URL, overrides the config file"`
		Actor        string                   `help:"Actor recorded in the audit trail" default:"orgctl"`
		Debug        bool                     `help:"Enable debug logging."`
		Seed         commands.SeedCmd         `cmd:"" help:"Apply migrations and seed roles, plans and the default organization"`
		BlockOrg     commands.BlockOrgCmd     `cmd:"" name:"block-org" help:"Block or unblock an organization"`
		BlockMember  commands.BlockMemberCmd  `cmd:"" name:"block-member" help:"Block or unblock a membership"`
		AddMember    commands.AddMemberCmd    `cmd:"" name:"add-member" help:"Add an existing principal to an organization"`
		RemoveMember commands.RemoveMemberCmd `cmd:"" name:"remove-member" help:"Remove a membership"`
		Access       commands.AccessCmd       `cmd:"" help:"Print the access state of a principal"`
		Orgs         commands.OrgsCmd         `cmd:"" help:"List organizations with plan, members and expiration"`
		Reconcile    commands.ReconcileCmd    `cmd:"" help:"Report dangling active tenants and expired subscriptions"`
		Version      kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Config:   cli.Config,
		Database: cli.Database,
		Actor:    cli.Actor,
		Debug:    cli.Debug,
		Version:  version,
	})
	cmd.FatalIfErrorf(err)
}

