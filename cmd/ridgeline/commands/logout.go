package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Remove the stored token",
		Action: logoutAction,
	}
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(cmd)
	if err != nil {
		return err
	}
	defer teardown(application)

	if err := application.Logout(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.Root().Writer, "Logged out.")
	return nil
}
