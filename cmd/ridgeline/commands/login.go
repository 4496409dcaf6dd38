package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with the configured Ridgeline deployment",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "login--port",
				Aliases: []string{"port"},
				Usage:   "fixed port for the local redirect listener (default: ephemeral)",
			},
			&cli.DurationFlag{
				Name:    "login--timeout",
				Aliases: []string{"timeout"},
				Usage:   "how long to wait for the browser login",
			},
			&cli.BoolFlag{
				Name:  "with-token",
				Usage: "read a token from stdin instead of opening a browser",
			},
		},
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(cmd)
	if err != nil {
		return err
	}
	defer teardown(application)

	w := cmd.Root().Writer

	if cmd.Bool("with-token") {
		token, err := readTokenInput(w)
		if err != nil {
			return err
		}
		if err := application.LoginWithToken(ctx, token); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, "Authenticated.")
		return nil
	}

	token, err := application.Login(ctx)
	if err != nil {
		return err
	}
	printIdentity(w, token)
	return nil
}

// readTokenInput reads a token without echo from an interactive terminal, or
// a single line from stdin when input is piped.
func readTokenInput(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		_, _ = fmt.Fprint(w, "Token: ")
		defer func() { _, _ = fmt.Fprintln(w) }()

		raw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
