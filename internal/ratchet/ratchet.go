// Package ratchet narrows a run to the files that differ from a git
// reference, so that a formatter can be adopted gradually.
package ratchet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Ratchet compares working tree files against the tree of a fixed commit.
type Ratchet struct {
	ref  string
	root string
	tree *object.Tree
}

// Open locates the repository containing path and resolves ref, which may be
// a branch, tag, remote branch or commit hash.
func Open(path, ref string) (*Ratchet, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", ref, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree of %s: %w", hash, err)
	}

	root, err := canonical(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}

	return &Ratchet{ref: ref, root: root, tree: tree}, nil
}

// Ref returns the reference the ratchet was opened with.
func (r *Ratchet) Ref() string { return r.ref }

// Changed reports whether the file at path is new or modified relative to the
// ratchet's reference. Files outside the repository are always considered
// changed.
func (r *Ratchet) Changed(path string) (bool, error) {
	abs, err := canonical(path)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true, nil
	}

	file, err := r.tree.File(filepath.ToSlash(rel))
	if errors.Is(err, object.ErrFileNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up %s in %s: %w", rel, r.ref, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return false, err
	}
	return plumbing.ComputeHash(plumbing.BlobObject, data) != file.Hash, nil
}

// Changed filters files down to those that differ from ref in the repository
// containing repoPath. Input order is preserved.
func Changed(repoPath, ref string, files []string) ([]string, error) {
	r, err := Open(repoPath, ref)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, file := range files {
		ok, err := r.Changed(file)
		if err != nil {
			return nil, err
		}
		if ok {
			changed = append(changed, file)
		}
	}
	return changed, nil
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
