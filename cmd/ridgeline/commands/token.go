package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Print the current token for use in scripts",
		Action: tokenAction,
	}
}

func tokenAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(cmd)
	if err != nil {
		return err
	}
	defer teardown(application)

	token, ok, err := application.Token(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not authenticated, run `ridgeline login`")
	}

	_, _ = fmt.Fprintln(cmd.Root().Writer, token)
	return nil
}
