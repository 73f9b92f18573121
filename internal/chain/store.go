package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/silog"
)

const (
	_chainSection  = "chain"
	_branchSection = "branch"
)

// Store persists and queries chain metadata in a repository's
// configuration, under the namespace described in §4.1:
//
//	chain.<name>.root            = root branch name
//	branch.<name>.chain-name     = chain the branch belongs to
//	branch.<name>.chain-order    = integer position (ascending)
type Store struct {
	repo *git.Repository
	cfg  *git.Config
	log  *silog.Logger
}

// NewStore builds a Store backed by repo's configuration.
func NewStore(repo *git.Repository, log *silog.Logger) *Store {
	if log == nil {
		log = silog.Nop()
	}
	return &Store{repo: repo, cfg: repo.Config(), log: log}
}

func chainRootKey(name string) git.ConfigKey {
	return git.ConfigKey(_chainSection + "." + name + ".root")
}

func branchChainNameKey(branch string) git.ConfigKey {
	return git.ConfigKey(_branchSection + "." + branch + ".chain-name")
}

func branchChainOrderKey(branch string) git.ConfigKey {
	return git.ConfigKey(_branchSection + "." + branch + ".chain-order")
}

// branchMeta loads the BranchMeta recorded for branch, or reports
// that no BranchMeta exists.
func (s *Store) branchMeta(ctx context.Context, branch string) (*BranchMeta, bool, error) {
	chainName, ok, err := s.cfg.Get(ctx, branchChainNameKey(branch))
	if err != nil {
		return nil, false, fmt.Errorf("read chain-name for %v: %w", branch, err)
	}
	if !ok {
		return nil, false, nil
	}

	orderStr, ok, err := s.cfg.Get(ctx, branchChainOrderKey(branch))
	if err != nil {
		return nil, false, fmt.Errorf("read chain-order for %v: %w", branch, err)
	}
	if !ok {
		return nil, false, &ErrInvariant{Reason: "branch " + branch + " has chain-name but no chain-order"}
	}
	order, err := strconv.Atoi(orderStr)
	if err != nil {
		return nil, false, &ErrInvariant{Reason: "branch " + branch + " has non-integer chain-order " + orderStr}
	}

	root, ok, err := s.cfg.Get(ctx, chainRootKey(chainName))
	if err != nil {
		return nil, false, fmt.Errorf("read root for chain %v: %w", chainName, err)
	}
	if !ok {
		return nil, false, &ErrInvariant{Reason: "branch " + branch + " claims chain " + chainName + " which has no root"}
	}

	return &BranchMeta{
		Branch:     branch,
		ChainName:  chainName,
		ParentPos:  order,
		RootBranch: root,
	}, true, nil
}

// Get loads the named chain with its members in ascending
// chain-order.
func (s *Store) Get(ctx context.Context, name string) (*Chain, error) {
	root, ok, err := s.cfg.Get(ctx, chainRootKey(name))
	if err != nil {
		return nil, fmt.Errorf("read chain root: %w", err)
	}
	if !ok {
		return nil, &ErrNotFound{Kind: "chain", Name: name}
	}

	members, positions, err := s.membersOf(ctx, name)
	if err != nil {
		return nil, err
	}
	sortByPosition(members, positions)

	return &Chain{Name: name, Root: root, Members: members}, nil
}

// membersOf returns the unsorted branch names belonging to chain
// name, along with their chain-order positions.
func (s *Store) membersOf(ctx context.Context, name string) ([]string, map[string]int, error) {
	var members []string
	positions := make(map[string]int)

	for entry, err := range s.cfg.ListRegexp(ctx, `^branch\..*\.chain-name$`) {
		if err != nil {
			return nil, nil, fmt.Errorf("list branch chain-name entries: %w", err)
		}
		if entry.Value != name {
			continue
		}

		_, branch, _ := entry.Key.Split()
		orderStr, ok, err := s.cfg.Get(ctx, branchChainOrderKey(branch))
		if err != nil {
			return nil, nil, fmt.Errorf("read chain-order for %v: %w", branch, err)
		}
		if !ok {
			return nil, nil, &ErrInvariant{Reason: "branch " + branch + " has chain-name but no chain-order"}
		}
		order, err := strconv.Atoi(orderStr)
		if err != nil {
			return nil, nil, &ErrInvariant{Reason: "branch " + branch + " has non-integer chain-order " + orderStr}
		}

		members = append(members, branch)
		positions[branch] = order
	}

	return members, positions, nil
}

// List returns every chain known to the repository, in name order;
// each chain's members are in ascending chain-order.
func (s *Store) List(ctx context.Context) ([]*Chain, error) {
	var names []string
	for entry, err := range s.cfg.ListRegexp(ctx, `^chain\..*\.root$`) {
		if err != nil {
			return nil, fmt.Errorf("list chain root entries: %w", err)
		}
		_, name, _ := entry.Key.Split()
		names = append(names, name)
	}

	chains := make([]*Chain, 0, len(names))
	for _, name := range names {
		c, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		chains = append(chains, c)
	}

	sort.Slice(chains, func(i, j int) bool { return chains[i].Name < chains[j].Name })
	return chains, nil
}

// GetActive resolves the chain containing HEAD's current branch.
// Returns [ErrDetachedHead] if HEAD is not on a branch, or
// [ErrNotFound] if the current branch is not in any chain.
func (s *Store) GetActive(ctx context.Context) (*Chain, error) {
	branch, err := s.repo.Worktree().CurrentBranch(ctx)
	if err != nil {
		if errors.Is(err, git.ErrDetachedHead) {
			return nil, ErrDetachedHead
		}
		return nil, fmt.Errorf("resolve current branch: %w", err)
	}

	meta, ok, err := s.branchMeta(ctx, branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ErrNotFound{Kind: "branch", Name: branch}
	}

	return s.Get(ctx, meta.ChainName)
}

// Setup creates a new chain from scratch with the given root and
// ordered member branches.
//
// It fails if any member is missing from the repository, already
// belongs to another chain, equals root, or the chain name is
// already in use.
func (s *Store) Setup(ctx context.Context, name, root string, members []string) error {
	if _, ok, err := s.cfg.Get(ctx, chainRootKey(name)); err != nil {
		return fmt.Errorf("check existing chain: %w", err)
	} else if ok {
		return &ErrAlreadyExists{Kind: "chain", Name: name}
	}

	for _, b := range members {
		if b == root {
			return &ErrInvariant{Reason: "root branch " + root + " cannot also be a member"}
		}
		if !s.repo.BranchExists(ctx, b) {
			return &ErrNotFound{Kind: "branch", Name: b}
		}
		if meta, ok, err := s.branchMeta(ctx, b); err != nil {
			return err
		} else if ok {
			return &ErrAlreadyExists{Kind: "branch", Name: b + " (in chain " + meta.ChainName + ")"}
		}
	}

	if err := s.cfg.Set(ctx, chainRootKey(name), root); err != nil {
		return fmt.Errorf("write chain root: %w", err)
	}

	positions := assignPositions(len(members))
	for i, b := range members {
		if err := s.setBranchMeta(ctx, b, name, positions[i]); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) setBranchMeta(ctx context.Context, branch, chainName string, pos int) error {
	if err := s.cfg.Set(ctx, branchChainNameKey(branch), chainName); err != nil {
		return fmt.Errorf("write chain-name for %v: %w", branch, err)
	}
	if err := s.cfg.Set(ctx, branchChainOrderKey(branch), strconv.Itoa(pos)); err != nil {
		return fmt.Errorf("write chain-order for %v: %w", branch, err)
	}
	return nil
}

// InitAnchor selects where a newly initialized branch is inserted
// relative to an existing chain.
type InitAnchor struct {
	// Before names the branch the new member is inserted before.
	Before string
	// After names the branch the new member is inserted after.
	After string
	// First, if true, inserts at the start of the chain.
	First bool
	// Last, if true (the default when nothing else is set), inserts
	// at the end of the chain.
	Last bool
}

// Init adds the current branch to chain name (creating it if root is
// given and the chain does not yet exist), honoring anchor.
//
// It rejects the operation if the current branch already belongs to
// a chain, equals root, or the anchor names a branch not in the
// chain.
func (s *Store) Init(ctx context.Context, name, root string, anchor InitAnchor) error {
	branch, err := s.repo.Worktree().CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("resolve current branch: %w", err)
	}
	if branch == root {
		return &ErrInvariant{Reason: "current branch " + branch + " cannot be its own root"}
	}
	if _, ok, err := s.branchMeta(ctx, branch); err != nil {
		return err
	} else if ok {
		return &ErrAlreadyExists{Kind: "branch", Name: branch}
	}

	c, err := s.Get(ctx, name)
	if err != nil {
		var nf *ErrNotFound
		if !errors.As(err, &nf) {
			return err
		}
		if err := s.cfg.Set(ctx, chainRootKey(name), root); err != nil {
			return fmt.Errorf("write chain root: %w", err)
		}
		return s.setBranchMeta(ctx, branch, name, positionStride)
	}

	return s.insertMember(ctx, c, branch, anchor)
}

func (s *Store) insertMember(ctx context.Context, c *Chain, branch string, anchor InitAnchor) error {
	positions := make(map[string]int, len(c.Members))
	for _, m := range c.Members {
		meta, ok, err := s.branchMeta(ctx, m)
		if err != nil {
			return err
		}
		if !ok {
			return &ErrInvariant{Reason: "member " + m + " of chain " + c.Name + " lost its metadata"}
		}
		positions[m] = meta.ParentPos
	}

	var lo, hi int
	switch {
	case anchor.First:
		hi = positionOrZero(c.Members, 0, positions)
	case anchor.Before != "":
		idx := c.IndexOf(anchor.Before)
		if idx < 0 {
			return &ErrNotFound{Kind: "branch", Name: anchor.Before}
		}
		lo = positionOrZero(c.Members, idx-1, positions)
		hi = positions[c.Members[idx]]
	case anchor.After != "":
		idx := c.IndexOf(anchor.After)
		if idx < 0 {
			return &ErrNotFound{Kind: "branch", Name: anchor.After}
		}
		lo = positions[c.Members[idx]]
		hi = positionOrZero(c.Members, idx+1, positions)
	default: // Last
		lo = positionOrZero(c.Members, len(c.Members)-1, positions)
	}

	pos, ok := insertPosition(lo, hi)
	if !ok {
		if err := s.renumberChain(ctx, c, positions); err != nil {
			return err
		}
		return s.insertMember(ctx, c, branch, anchor)
	}

	return s.setBranchMeta(ctx, branch, c.Name, pos)
}

func positionOrZero(members []string, idx int, positions map[string]int) int {
	if idx < 0 || idx >= len(members) {
		return 0
	}
	return positions[members[idx]]
}

func (s *Store) renumberChain(ctx context.Context, c *Chain, positions map[string]int) error {
	fresh := renumber(len(c.Members))
	for i, m := range c.Members {
		if err := s.cfg.Set(ctx, branchChainOrderKey(m), strconv.Itoa(fresh[i])); err != nil {
			return fmt.Errorf("renumber %v: %w", m, err)
		}
		positions[m] = fresh[i]
	}
	return nil
}

// Rename renames chain old to new, updating both the chain.<old>.*
// section and every member's chain-name.
//
// The section is renamed first, then each member's chain-name is set
// in turn. The steps are not atomic: if one fails, the steps already
// made stay in place and nothing is rolled back.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if _, err := s.Get(ctx, oldName); err != nil {
		return err
	}
	if _, ok, err := s.cfg.Get(ctx, chainRootKey(newName)); err != nil {
		return fmt.Errorf("check target name: %w", err)
	} else if ok {
		return &ErrAlreadyExists{Kind: "chain", Name: newName}
	}

	if err := s.cfg.RenameSection(ctx, _chainSection+"."+oldName, _chainSection+"."+newName); err != nil {
		return fmt.Errorf("rename chain section: %w", err)
	}

	members, _, err := s.membersOf(ctx, oldName)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := s.cfg.Set(ctx, branchChainNameKey(m), newName); err != nil {
			return fmt.Errorf("update chain-name for %v: %w", m, err)
		}
	}
	return nil
}

// Remove removes branch from whatever chain it belongs to.
func (s *Store) Remove(ctx context.Context, branch string) error {
	if _, ok, err := s.branchMeta(ctx, branch); err != nil {
		return err
	} else if !ok {
		return &ErrNotFound{Kind: "branch", Name: branch}
	}

	if err := s.cfg.Unset(ctx, branchChainNameKey(branch)); err != nil {
		return fmt.Errorf("remove chain-name: %w", err)
	}
	if err := s.cfg.Unset(ctx, branchChainOrderKey(branch)); err != nil {
		return fmt.Errorf("remove chain-order: %w", err)
	}
	return nil
}

// RemoveChain deletes chain name entirely, including every member's
// BranchMeta.
func (s *Store) RemoveChain(ctx context.Context, name string) error {
	c, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	for _, m := range c.Members {
		if err := s.Remove(ctx, m); err != nil {
			return err
		}
	}
	if err := s.cfg.RemoveSection(ctx, _chainSection+"."+name); err != nil {
		return fmt.Errorf("remove chain section: %w", err)
	}
	return nil
}

// MoveTarget selects the destination of a Move operation.
type MoveTarget struct {
	Before string // move immediately before this branch
	After  string // move immediately after this branch
	Chain  string // re-home to a different chain (append at its end)
	Root   string // change the chain's root without altering order
}

// Move repositions branch within its chain, re-homes it to a
// different chain, or changes its chain's root, per target.
//
// Exactly one of target's fields should be set; Root is orthogonal
// and does not alter chain-order values (Open Question resolution,
// see DESIGN.md).
func (s *Store) Move(ctx context.Context, branch string, target MoveTarget) error {
	meta, ok, err := s.branchMeta(ctx, branch)
	if err != nil {
		return err
	}
	if !ok {
		return &ErrNotFound{Kind: "branch", Name: branch}
	}

	if target.Root != "" {
		return s.setRoot(ctx, meta.ChainName, target.Root)
	}

	if target.Chain != "" {
		if target.Chain == meta.ChainName {
			return &ErrAlreadyExists{Kind: "branch", Name: branch + " (already in chain " + target.Chain + ")"}
		}
		dest, err := s.Get(ctx, target.Chain)
		if err != nil {
			return err
		}
		if err := s.Remove(ctx, branch); err != nil {
			return err
		}
		return s.insertMember(ctx, dest, branch, InitAnchor{Last: true})
	}

	c, err := s.Get(ctx, meta.ChainName)
	if err != nil {
		return err
	}
	c.Members = removeString(c.Members, branch)
	if err := s.Remove(ctx, branch); err != nil {
		return err
	}

	anchor := InitAnchor{Before: target.Before, After: target.After}
	if anchor.Before == "" && anchor.After == "" {
		anchor.Last = true
	}
	return s.insertMember(ctx, c, branch, anchor)
}

func (s *Store) setRoot(ctx context.Context, chainName, newRoot string) error {
	if err := s.cfg.Set(ctx, chainRootKey(chainName), newRoot); err != nil {
		return fmt.Errorf("write chain root: %w", err)
	}
	return nil
}

func removeString(ss []string, target string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// BranchMeta loads the metadata recorded for branch.
func (s *Store) BranchMeta(ctx context.Context, branch string) (*BranchMeta, error) {
	meta, ok, err := s.branchMeta(ctx, branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ErrNotFound{Kind: "branch", Name: branch}
	}
	return meta, nil
}

// ResolveChainName returns the chain name to operate on: explicit if
// non-empty, otherwise the active chain's name.
func (s *Store) ResolveChainName(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	c, err := s.GetActive(ctx)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}
