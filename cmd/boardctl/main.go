// main.go
//
// Recipe development board data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recipe-board.
// recipe-board is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recipe-board is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recipe-board.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// boardctl drives a recipe board from the terminal. It keeps the same
// optimistic mirror a browser client would and prints the board after
// every change.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localnerve/recipe-board/internal/client"
	"github.com/localnerve/recipe-board/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

type options struct {
	api      string
	token    string
	tokenCmd string
	board    string
	timeout  time.Duration
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "boardctl",
		Short: "Drive a recipe board from the terminal",
		Long: `boardctl reads and rearranges a recipe board.

Columns and cards can be named by id, a unique id prefix or their title.
A token is taken from --token, or from --token-cmd, which is also run again
when the service rejects the current token.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !opts.verbose {
				log.SetOutput(io.Discard)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.api, "api", envOr("BOARD_API", "http://localhost:3001"), "service base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("BOARD_TOKEN"), "bearer token")
	flags.StringVar(&opts.tokenCmd, "token-cmd", os.Getenv("BOARD_TOKEN_CMD"), "command that prints a token, run to acquire and refresh")
	flags.StringVar(&opts.board, "board", "", "board id (default the first board)")
	flags.DurationVar(&opts.timeout, "timeout", config.ClientTimeout(), "per request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log failures with their kind")

	root.AddCommand(
		showCmd(opts),
		moveCardCmd(opts),
		moveColumnCmd(opts),
		addColumnCmd(opts),
		renameColumnCmd(opts),
		deleteColumnCmd(opts),
		addCardCmd(opts),
		deleteCardCmd(opts),
	)
	return root
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// session signs in and loads the board mirror
func (o *options) session(ctx context.Context) (*client.Store, error) {
	var (
		source  oauth2.TokenSource
		refresh client.RefreshFunc
	)
	if o.tokenCmd != "" {
		cmdSource, err := newCommandTokenSource(o.tokenCmd)
		if err != nil {
			return nil, err
		}
		source, refresh = cmdSource, cmdSource.refresh
	}
	if o.token != "" {
		source = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token, TokenType: "Bearer"})
	}
	if source == nil {
		return nil, errors.New("a token is required: set --token or --token-cmd")
	}

	tokens := client.NewTokenManager(source, refresh)
	store := client.NewStore(client.NewAPI(o.api, tokens, o.timeout), o.board)
	tokens.OnSignOut(func() {
		log.Printf("session cleared after the service rejected a refreshed token")
		store.Reset()
	})

	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	if store.State().BoardID == "" {
		if err := store.State().Err; err != nil {
			return nil, err
		}
		return nil, errors.New("no board found")
	}
	return store, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
