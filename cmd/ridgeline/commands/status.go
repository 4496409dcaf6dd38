package commands

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show authentication status",
		Action: statusAction,
	}
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(cmd)
	if err != nil {
		return err
	}
	defer teardown(application)

	status, err := application.Status(ctx)
	if err != nil {
		return err
	}
	if !status.TokenPresent {
		return errors.New("not authenticated, run `ridgeline login`")
	}
	if !status.Authenticated {
		return errors.New("token no longer accepted, run `ridgeline login`")
	}

	printIdentity(cmd.Root().Writer, status.Token)
	return nil
}
