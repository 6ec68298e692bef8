// Package archive keeps a git history of saved portfolio content. Each full
// save becomes one commit holding projects.json, logs.json and skills.json.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"portfolio/api/internal/content"
)

const branch = "main"

// ErrRevisionNotFound is returned for hashes the archive does not hold.
var ErrRevisionNotFound = errors.New("archive revision not found")

var files = []string{"projects.json", "logs.json", "skills.json"}

// Entry describes one archived save.
type Entry struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Change is one entity that differs between two snapshots.
type Change struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Kind       string `json:"kind"`
}

const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeEdited  = "edited"
)

type Archive struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func New(dir string) *Archive {
	return &Archive{dir: dir, now: time.Now}
}

// Commit writes snapshot and commits it. When nothing changed since the last
// commit the existing head is returned.
func (a *Archive) Commit(snapshot content.Snapshot, author, message string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	repo, err := a.open(true)
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}

	payloads := []any{snapshot.Projects, snapshot.Logs, snapshot.Skills}
	for i, name := range files {
		data, err := json.MarshalIndent(payloads[i], "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(a.dir, name), append(data, '\n'), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
		if _, err := worktree.Add(name); err != nil {
			return "", fmt.Errorf("git add %s: %w", name, err)
		}
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName(author),
			Email: authorEmail(author),
			When:  a.now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		head, headErr := repo.Head()
		if headErr != nil {
			return "", fmt.Errorf("read head: %w", headErr)
		}
		return shortHash(head.Hash()), nil
	}
	if err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return shortHash(hash), nil
}

// History lists archived saves, newest first. An archive that has never been
// written has no history.
func (a *Archive) History(limit int) ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	repo, err := a.open(false)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	entries := make([]Entry, 0)
	err = iter.ForEach(func(commit *object.Commit) error {
		entries = append(entries, toEntry(commit))
		if limit > 0 && len(entries) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}

// Snapshot reads the content archived at hash and what changed relative to
// the commit before it.
func (a *Archive) Snapshot(hash string) (content.Snapshot, []Change, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	repo, err := a.open(false)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return content.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, hash)
	}
	if err != nil {
		return content.Snapshot{}, nil, err
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return content.Snapshot{}, nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, hash, err)
	}
	commit, err := repo.CommitObject(*resolved)
	if err != nil {
		return content.Snapshot{}, nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	snapshot, err := readSnapshot(commit)
	if err != nil {
		return content.Snapshot{}, nil, err
	}

	previous := content.Snapshot{}
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return content.Snapshot{}, nil, fmt.Errorf("read parent of %s: %w", hash, err)
		}
		if previous, err = readSnapshot(parent); err != nil {
			return content.Snapshot{}, nil, err
		}
	}
	return snapshot, Diff(previous, snapshot), nil
}

func (a *Archive) open(create bool) (*git.Repository, error) {
	repo, err := git.PlainOpen(a.dir)
	if err == nil {
		return repo, nil
	}
	if !create || !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	repo, err = git.PlainInit(a.dir, false)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("set HEAD to %s: %w", branch, err)
	}
	return repo, nil
}

func readSnapshot(commit *object.Commit) (content.Snapshot, error) {
	var snapshot content.Snapshot
	targets := []any{&snapshot.Projects, &snapshot.Logs, &snapshot.Skills}
	for i, name := range files {
		file, err := commit.File(name)
		if err != nil {
			return content.Snapshot{}, fmt.Errorf("load %s from commit: %w", name, err)
		}
		body, err := file.Contents()
		if err != nil {
			return content.Snapshot{}, fmt.Errorf("read %s: %w", name, err)
		}
		if err := json.Unmarshal([]byte(body), targets[i]); err != nil {
			return content.Snapshot{}, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return snapshot, nil
}

// Diff lists entities added, removed or edited between two snapshots, sorted
// by collection and id.
func Diff(from, to content.Snapshot) []Change {
	changes := make([]Change, 0)
	changes = append(changes, diffCollection("projects", index(from.Projects, projectKey), index(to.Projects, projectKey))...)
	changes = append(changes, diffCollection("logs", index(from.Logs, logKey), index(to.Logs, logKey))...)
	changes = append(changes, diffCollection("skills", index(from.Skills, skillKey), index(to.Skills, skillKey))...)
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Collection != changes[j].Collection {
			return changes[i].Collection < changes[j].Collection
		}
		return changes[i].ID < changes[j].ID
	})
	return changes
}

func projectKey(p content.Project) string     { return p.ID }
func logKey(l content.LogEntry) string        { return l.ID }
func skillKey(c content.SkillCategory) string { return c.ID }

// index maps id to the entity's JSON form for comparison.
func index[T any](items []T, key func(T) string) map[string]string {
	out := make(map[string]string, len(items))
	for _, item := range items {
		data, _ := json.Marshal(item)
		out[key(item)] = string(data)
	}
	return out
}

func diffCollection(collection string, before, after map[string]string) []Change {
	var changes []Change
	for id, old := range before {
		current, ok := after[id]
		switch {
		case !ok:
			changes = append(changes, Change{Collection: collection, ID: id, Kind: ChangeRemoved})
		case current != old:
			changes = append(changes, Change{Collection: collection, ID: id, Kind: ChangeEdited})
		}
	}
	for id := range after {
		if _, ok := before[id]; !ok {
			changes = append(changes, Change{Collection: collection, ID: id, Kind: ChangeAdded})
		}
	}
	return changes
}

func toEntry(commit *object.Commit) Entry {
	return Entry{
		Hash:      shortHash(commit.Hash),
		Message:   strings.TrimSpace(commit.Message),
		Author:    commit.Author.Name,
		CreatedAt: commit.Author.When,
	}
}

func shortHash(hash plumbing.Hash) string {
	return hash.String()[:7]
}

func authorName(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return "portfolio"
	}
	if at := strings.Index(author, "@"); at > 0 {
		return author[:at]
	}
	return author
}

func authorEmail(author string) string {
	author = strings.TrimSpace(author)
	if strings.Contains(author, "@") {
		return author
	}
	local := make([]rune, 0, len(author))
	for _, r := range author {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			local = append(local, r)
		case r == ' ' || r == '-' || r == '_':
			local = append(local, '.')
		}
	}
	if len(local) == 0 {
		return "portfolio@localhost"
	}
	return string(local) + "@localhost"
}
