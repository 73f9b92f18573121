package main

import (
	"context"
	"time"

	"github.com/sahilm/fuzzy"

	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/komplete"
	"go.chain.dev/chain/internal/text"
)

// fuzzyRank reorders candidates by how well they fuzzy-match the typed
// portion of the current argument, so e.g. "chain move --before=ftr"
// completes "feature" ahead of unrelated branches. An empty typed
// portion returns candidates unranked.
func fuzzyRank(candidates []string, typed string) []string {
	if typed == "" {
		return candidates
	}

	matches := fuzzy.Find(typed, candidates)
	ranked := make([]string, len(matches))
	for i, m := range matches {
		ranked[i] = m.Str
	}
	return ranked
}

type completeCmd struct {
	*komplete.Command `embed:""`
}

func (c *completeCmd) Help() string {
	return text.Dedent(`
		Generates shell completion scripts for chain.
		To install the script, add the generated script to your shell's
		rc file. For example:

			# bash
			chain complete bash >> ~/.bashrc

			# zsh
			chain complete zsh >> ~/.zshrc

			# fish
			chain complete fish >> ~/.config/fish/config.fish
	`)
}

func predictBranches(args komplete.Args) (predictions []string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	repo, err := git.Open(ctx, ".", git.OpenOptions{})
	if err != nil {
		return nil
	}

	branches, err := repo.LocalBranches(ctx)
	if err != nil {
		return nil
	}

	return fuzzyRank(branches, args.Last)
}

func predictChains(args komplete.Args) (predictions []string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	repo, err := git.Open(ctx, ".", git.OpenOptions{})
	if err != nil {
		return nil
	}

	store := openStore(repo, nil)
	chains, err := store.List(ctx)
	if err != nil {
		return nil
	}

	for _, c := range chains {
		predictions = append(predictions, c.Name)
	}
	return fuzzyRank(predictions, args.Last)
}

func predictRemotes(args komplete.Args) (predictions []string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	repo, err := git.Open(ctx, ".", git.OpenOptions{})
	if err != nil {
		return nil
	}

	remotes, err := repo.ListRemotes(ctx)
	if err != nil {
		return nil
	}

	return remotes
}

func predictMergeStrategies(args komplete.Args) []string {
	return []string{"ort", "recursive", "resolve", "octopus", "ours", "subtree"}
}
