// Package build installs and tests the settlement binaries,
// embedding git commit and date for the version sub command.
//
// Usage: go run build/ci.go <install|test> [packages...]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/anyswap/CrossChain-Settlement/internal/build"
)

const minGoMinorVersion = 17

var (
	gobin, _ = filepath.Abs(filepath.Join("build", "bin"))

	defaultPackages = []string{
		"./cmd/settleserver",
		"./cmd/settleadmin",
	}
)

func main() {
	log.SetFlags(log.Lshortfile)

	if _, err := os.Stat(filepath.Join("build", "ci.go")); os.IsNotExist(err) {
		log.Fatal("this script must be run from the root of the repository")
	}
	if len(os.Args) < 2 {
		log.Fatal("need subcommand as first argument")
	}
	switch os.Args[1] {
	case "install":
		doInstall(os.Args[2:])
	case "test":
		doTest(os.Args[2:])
	default:
		log.Fatal("unknown command ", os.Args[1])
	}
}

func checkGoVersion() {
	if strings.Contains(runtime.Version(), "devel") {
		return
	}
	// minor version number, textual compare is wrong (1.10 < 1.9)
	var minor int
	_, _ = fmt.Sscanf(strings.TrimPrefix(runtime.Version(), "go1."), "%d", &minor)
	if minor < minGoMinorVersion {
		log.Println("You have Go version", runtime.Version())
		log.Printf("requires at least Go version 1.%d, please upgrade your Go installation.", minGoMinorVersion)
		os.Exit(1)
	}
}

// Compiling

func doInstall(cmdline []string) {
	_ = flag.CommandLine.Parse(cmdline)
	checkGoVersion()
	env := build.Env()
	log.Println("build env:", env)

	packages := defaultPackages
	if flag.NArg() > 0 {
		packages = flag.Args()
	}

	goinstall := goTool("install", buildFlags(env)...)
	if runtime.GOARCH == "arm64" {
		goinstall.Args = append(goinstall.Args, "-p", "1")
	}
	goinstall.Args = append(goinstall.Args, "-v")
	goinstall.Args = append(goinstall.Args, packages...)
	build.MustRun(goinstall)
}

// Testing

func doTest(cmdline []string) {
	race := flag.Bool("race", false, "run tests with the race detector")
	_ = flag.CommandLine.Parse(cmdline)
	checkGoVersion()

	packages := []string{"./..."}
	if flag.NArg() > 0 {
		packages = flag.Args()
	}

	gotest := goTool("test")
	if *race {
		gotest.Args = append(gotest.Args, "-race")
	}
	gotest.Args = append(gotest.Args, "-p", "1", "-count", "1")
	gotest.Args = append(gotest.Args, packages...)
	build.MustRun(gotest)
}

func buildFlags(env build.Environment) (flags []string) {
	var ld []string
	if env.Commit != "" {
		ld = append(ld,
			"-X", "main.gitCommit="+env.Commit,
			"-X", "main.gitDate="+env.Date,
		)
	}
	if runtime.GOOS == "darwin" {
		ld = append(ld, "-s")
	}

	if len(ld) > 0 {
		flags = append(flags, "-ldflags", strings.Join(ld, " "))
	}
	return flags
}

func goTool(subcmd string, args ...string) *exec.Cmd {
	return goToolArch(runtime.GOARCH, os.Getenv("CC"), subcmd, args...)
}

func goToolArch(arch, cc, subcmd string, args ...string) *exec.Cmd {
	cmd := build.GoTool(subcmd, args...)
	if arch == "" || arch == runtime.GOARCH {
		cmd.Env = append(cmd.Env, "GOBIN="+gobin)
	} else {
		cmd.Env = append(cmd.Env, "CGO_ENABLED=1", "GOARCH="+arch)
	}
	if cc != "" {
		cmd.Env = append(cmd.Env, "CC="+cc)
	}
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "GOBIN=") {
			continue
		}
		cmd.Env = append(cmd.Env, e)
	}
	return cmd
}
