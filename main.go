// chain is a command line tool to maintain stacked branch chains on
// top of a local Git repository, mechanizing cascade rebases and
// cascade merges across them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/komplete"
	"go.chain.dev/chain/internal/silog"
)

var _version = "dev"

func main() {
	logger := silog.New(os.Stderr, &silog.Options{Level: silog.LevelInfo})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		select {
		case <-sigc:
			logger.Info("interrupted; press Ctrl-C again to exit immediately")
			cancel()
			signal.Stop(sigc)
		case <-ctx.Done():
		}
	}()

	isTerminal := isatty.IsTerminal(os.Stdin.Fd())

	var cmd mainCmd
	parser, err := kong.New(&cmd,
		kong.Name("chain"),
		kong.Description("chain maintains stacked branch chains and mechanizes cascade rebases and merges across them."),
		kong.Bind(logger),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Vars{
			"nonInteractive": strconv.FormatBool(!isTerminal),
		},
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err != nil {
		panic(err)
	}

	komplete.Run(parser,
		komplete.WithPredictor("branches", komplete.PredictFunc(predictBranches)),
		komplete.WithPredictor("chains", komplete.PredictFunc(predictChains)),
		komplete.WithPredictor("remotes", komplete.PredictFunc(predictRemotes)),
		komplete.WithPredictor("mergeStrategies", komplete.PredictFunc(predictMergeStrategies)),
	)

	shorthands := map[string][]string{
		"rb": {"rebase"},
		"mg": {"merge"},
	}
	args := os.Args[1:]
	if len(args) > 0 {
		if path, ok := shorthands[args[0]]; ok {
			args = slices.Replace(args, 0, 1, path...)
		}
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		logger.Fatalf("chain: %v", err)
	}

	if err := kctx.Run(); err != nil {
		printErr(logger, err)
		os.Exit(1)
	}
}

var _errStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"}).Bold(true)
var _hintStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "8", Dark: "8"})

// printErr is the single place (per §7) that maps a failed command to
// a colored, host-VCS-styled error message. A rebase's
// cascade.ErrConflict has already printed its own recovery
// instructions via the Reporter by the time it reaches here, so
// nothing more is printed for it. A merge conflict has no Reporter
// output, so its error is printed like any other.
func printErr(log *silog.Logger, err error) {
	var conflict *cascade.ErrConflict
	if errors.As(err, &conflict) {
		var mergeErr *git.MergeInterruptError
		if !errors.As(conflict.Err, &mergeErr) {
			return
		}
	}

	msg := err.Error()
	if idx := strings.Index(msg, "\nhint:"); idx >= 0 {
		fmt.Fprintf(os.Stderr, "%s %s\n", _errStyle.Render("error:"), msg[:idx])
		fmt.Fprintf(os.Stderr, "%s\n", _hintStyle.Render(msg[idx+1:]))
		return
	}

	log.Error(msg)
}
