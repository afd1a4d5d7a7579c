package build

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

var (
	// These flags override values in build env.
	gitCommitFlag = flag.String("git-commit", "", `Overrides git commit hash embedded into executables`)
	gitDateFlag   = flag.String("git-date", "", `Overrides git commit date embedded into executables`)
)

// Environment contains metadata provided by the build environment.
type Environment struct {
	Commit string
	Date   string
	Branch string
}

func (env Environment) String() string {
	return fmt.Sprintf("commit=%s date=%s branch=%s", env.Commit, env.Date, env.Branch)
}

// Env returns metadata about the current build environment,
// taken from flags, then SETTLE_GIT_* variables, then the local git checkout.
func Env() Environment {
	env := Environment{
		Commit: os.Getenv("SETTLE_GIT_COMMIT"),
		Date:   os.Getenv("SETTLE_GIT_DATE"),
		Branch: os.Getenv("SETTLE_GIT_BRANCH"),
	}
	if env.Commit == "" {
		env.Commit = localCommit()
	}
	if env.Date == "" && env.Commit != "" {
		env.Date = RunGit("show", "-s", "--format=%cd", "--date=format:%Y%m%d", env.Commit)
	}
	if env.Branch == "" {
		env.Branch = RunGit("rev-parse", "--abbrev-ref", "HEAD")
	}
	if *gitCommitFlag != "" {
		env.Commit = *gitCommitFlag
	}
	if *gitDateFlag != "" {
		env.Date = *gitDateFlag
	}
	return env
}

func localCommit() string {
	head := readGitFile("HEAD")
	if strings.HasPrefix(head, "ref: ") {
		return readGitFile(strings.TrimPrefix(head, "ref: "))
	}
	return head
}
