package git

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
)

// RepositoryMetadata describes the repository a scanned folder belongs to.
type RepositoryMetadata struct {
	Name               string  `json:"name"`
	BranchName         *string `json:"branch,omitempty"`
	CommitHash         *string `json:"commit,omitempty"`
	RepositoryFullName *string `json:"remote,omitempty"`
	WebURL             *string `json:"web_url,omitempty"`
	Subfolder          string  `json:"subfolder,omitempty"`
	RepoRootFolder     string  `json:"-"`
}

// CollectRepositoryMetadata collects branch name, commit hash, remote and
// folder layout for sourceFolder. Folders outside a git repository still get
// a Name and RepoRootFolder alongside ErrNotRepository.
func CollectRepositoryMetadata(sourceFolder string) (*RepositoryMetadata, error) {
	if sourceFolder == "" {
		return &RepositoryMetadata{}, ErrSourceNotSet
	}

	if absSource, err := filepath.Abs(sourceFolder); err == nil {
		sourceFolder = absSource
	}

	md := &RepositoryMetadata{
		Name:           filepath.Base(filepath.Clean(sourceFolder)),
		RepoRootFolder: filepath.Clean(sourceFolder),
	}

	repoRootFolder, err := findGitRepositoryPath(sourceFolder)
	if err != nil {
		return md, err
	}

	md.RepoRootFolder = filepath.Clean(repoRootFolder)
	md.Name = filepath.Base(md.RepoRootFolder)

	repo, err := git.PlainOpen(repoRootFolder)
	if err != nil {
		return md, fmt.Errorf("failed to open repository: %w", err)
	}

	if rel, err := filepath.Rel(repoRootFolder, sourceFolder); err == nil && rel != "." {
		md.Subfolder = filepath.ToSlash(rel)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			branchName := head.Name().Short()
			md.BranchName = &branchName
		}

		hash := head.Hash().String()
		md.CommitHash = &hash
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			repositoryFullName := strings.TrimSuffix(cfg.URLs[0], ".git")
			md.RepositoryFullName = &repositoryFullName

			if info, err := vcsurl.Parse(cfg.URLs[0]); err == nil {
				webURL := "https://" + info.ID
				md.WebURL = &webURL
				md.Name = info.Name
			}
		}
	}

	return md, nil
}

// DisplayPath joins the repository name with the path of file relative to the
// repository root, falling back to file when it lies outside the root.
func (md *RepositoryMetadata) DisplayPath(file string) string {
	if md == nil || md.RepoRootFolder == "" {
		return filepath.ToSlash(file)
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(md.RepoRootFolder, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(file)
	}
	return md.Name + "/" + filepath.ToSlash(rel)
}
