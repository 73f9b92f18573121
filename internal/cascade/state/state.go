// Package state implements serialization and atomic persistence of
// the chain-rebase state file: the on-disk record that lets a cascade
// rebase survive process boundaries across --continue/--skip/--abort.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status is a chain member's position in the rebase state machine
// (§4.5).
type Status string

const (
	// Pending means the branch has not yet been processed this run.
	Pending Status = "Pending"

	// Completed means the branch was successfully rebased (or
	// determined to need no rebase).
	Completed Status = "Completed"

	// Skipped means the branch was deliberately left untouched,
	// either by --skip or by --squashed-merge=skip.
	Skipped Status = "Skipped"

	// Conflict means the branch's rebase stopped on a conflict; the
	// cascade is paused here until --continue/--skip/--abort.
	Conflict Status = "Conflict"

	// SquashReset means the branch was detected as squash-merged and
	// reset to its parent's tip, after a backup was taken.
	SquashReset Status = "SquashReset"
)

// BranchEntry is the persisted record for one chain member
// participating in a cascade.
type BranchEntry struct {
	Name              string `json:"name"`
	Parent            string `json:"parent"`
	OriginalOid       string `json:"originalOid"`
	ParentOriginalOid string `json:"parentOriginalOid"`
	MergeBaseOid      string `json:"mergeBaseOid"`
	Status            Status `json:"status"`
}

// State is the root document persisted to the chain-rebase state
// file, per §6's JSON schema.
type State struct {
	ChainName      string        `json:"chainName"`
	OriginalBranch string        `json:"originalBranch"`
	Branches       []BranchEntry `json:"branches"`
	CreatedAt      string        `json:"createdAt"`
}

// Entry returns a pointer to the branch entry named name, or nil if
// no such entry exists.
func (s *State) Entry(name string) *BranchEntry {
	for i := range s.Branches {
		if s.Branches[i].Name == name {
			return &s.Branches[i]
		}
	}
	return nil
}

// OriginalOidOf returns the pre-cascade commit recorded for branch
// name.
//
// The lookup is a linear scan of State.Branches through Entry; the
// state keeps no separate map keyed by branch name.
func (s *State) OriginalOidOf(name string) (string, bool) {
	e := s.Entry(name)
	if e == nil {
		return "", false
	}
	return e.OriginalOid, true
}

const fileName = "chain-rebase-state.json"

// Path returns the path to the state file within gitDir, the
// repository's .git directory.
func Path(gitDir string) string {
	return filepath.Join(gitDir, fileName)
}

// ErrNoState indicates that no chain-rebase state file exists.
var ErrNoState = errors.New("no chain rebase in progress")

// Exists reports whether a state file is present in gitDir.
func Exists(gitDir string) bool {
	_, err := os.Stat(Path(gitDir))
	return err == nil
}

// Load reads and deserializes the state file in gitDir.
// It returns [ErrNoState] if no state file exists.
func Load(gitDir string) (*State, error) {
	data, err := os.ReadFile(Path(gitDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("read chain rebase state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse chain rebase state: %w", err)
	}
	return &s, nil
}

// Save atomically writes state to gitDir: it serializes to a
// temporary file in the same directory, flushes and closes it, then
// renames it over the real path. A process kill between those steps
// leaves either the old state file or the new one, never a partial
// write.
func Save(gitDir string, s *State) error {
	if s.CreatedAt == "" {
		s.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize chain rebase state: %w", err)
	}

	path := Path(gitDir)
	tmp, err := os.CreateTemp(gitDir, fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temporary state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temporary state file: %w", err)
	}
	return nil
}

// Delete removes the state file from gitDir. It is not an error for
// the file to already be absent.
func Delete(gitDir string) error {
	if err := os.Remove(Path(gitDir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete chain rebase state: %w", err)
	}
	return nil
}
