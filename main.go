// Package main implements the habitat CLI: sync, deps, clean, config, setup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gitplumbing "github.com/EmundoT/git-plumbing"

	"github.com/habitat-build/habitat/internal/core"
	"github.com/habitat-build/habitat/internal/tui"
	"github.com/habitat-build/habitat/internal/version"
)

// parseCommonFlags extracts the non-interactive output flags shared by every
// subcommand, returning the flags and the remaining unrecognized args.
func parseCommonFlags(args []string) (core.NonInteractiveFlags, []string) {
	flags := core.NonInteractiveFlags{}
	var remaining []string

	for _, arg := range args {
		switch arg {
		case "--yes", "-y":
			flags.Yes = true
		case "--quiet", "-q":
			flags.Mode = core.OutputQuiet
		case "--json":
			flags.Mode = core.OutputJSON
		default:
			remaining = append(remaining, arg)
		}
	}

	return flags, remaining
}

// flagValue scans args for "--name value" or "--name=value" and returns the
// value plus the args with that pair removed.
func flagValue(args []string, name string) (string, []string) {
	var out []string
	value := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == name && i+1 < len(args) {
			value = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, name+"=") {
			value = strings.TrimPrefix(arg, name+"=")
			continue
		}
		out = append(out, arg)
	}
	return value, out
}

// flagPresent reports whether name appears in args, returning args with it
// removed.
func flagPresent(args []string, name string) (bool, []string) {
	var out []string
	found := false
	for _, arg := range args {
		if arg == name {
			found = true
			continue
		}
		out = append(out, arg)
	}
	return found, out
}

func newUI(flags core.NonInteractiveFlags) core.UICallback {
	if flags.Mode != core.OutputNormal || flags.Yes {
		return tui.NewNonInteractiveTUICallback(flags)
	}
	return tui.NewTUICallback()
}

// resolveCacheDir applies the precedence cli flag > user config > env var >
// default $HOME/.habitat_cache.
func resolveCacheDir(cliValue string, userCfg core.UserConfig) string {
	if cliValue != "" {
		return cliValue
	}
	if userCfg.CacheDir != "" {
		return userCfg.CacheDir
	}
	if env := os.Getenv(core.EnvCacheDir); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, core.DefaultCacheDirName)
}

func resolveConcurrency(userCfg core.UserConfig) int {
	if env := os.Getenv(core.EnvConcurrency); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	if userCfg.Concurrency > 0 {
		return userCfg.Concurrency
	}
	return 0 // NewRuntimeContext derives runtime.NumCPU()
}

func loadUserConfig() core.UserConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		return core.UserConfig{}
	}
	cfg, err := core.NewFileUserConfigStore(home).Load()
	if err != nil {
		return core.UserConfig{}
	}
	return cfg
}

func buildRuntimeContext(ui core.UICallback, cacheDir string, concurrency int) *core.RuntimeContext {
	rc := core.NewRuntimeContext(cacheDir, concurrency, core.NewSystemGitClient(false), core.NewOSFileSystem(), ui)
	if env := os.Getenv(core.EnvMaxDependency); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			rc.RequireTimeout = time.Duration(n) * time.Second
		}
	}
	return rc
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(core.ExitSuccess)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	command := os.Args[1]
	rest := os.Args[2:]

	switch command {
	case "sync":
		os.Exit(runSync(ctx, rest))
	case "deps":
		os.Exit(runDeps(ctx, rest))
	case "clean":
		os.Exit(runClean(ctx, rest))
	case "config":
		os.Exit(runConfig(rest))
	case "setup":
		os.Exit(runSetup(rest))
	case "version", "--version", "-v":
		fmt.Println(version.GetFullVersion())
	case "help", "--help", "-h":
		printUsage()
	default:
		tui.PrintError("Unknown command", fmt.Sprintf("%q is not a habitat command", command))
		printUsage()
		os.Exit(core.ExitInvalidArguments)
	}
}

func printUsage() {
	fmt.Println(tui.StyleTitle("habitat") + " - source and binary dependency manager")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  habitat sync [root] [--main] [--target T1,T2] [--target-only] [--all] [--no-history] [--raw]")
	fmt.Println("               [-f|--force] [--clean] [--git-auth user:token] [--disable-cache] [--cache-dir DIR]")
	fmt.Println("               [--strict] [--disable-ignore] [--compatible]")
	fmt.Println("  habitat deps [root] [--raw|--source-stamp|--format FMT] [--target T] [--type T] [--name N] [--ignore-condition]")
	fmt.Println("  habitat clean [root] [--cache] [-f|--force]")
	fmt.Println("  habitat config get <key> | set <key> <value>")
	fmt.Println("  habitat setup")
	fmt.Println("  habitat version")
}

// runSync implements the `sync` command: §6 of the spec, resolving and
// fetching every node in the dependency graph rooted at root.
func runSync(ctx context.Context, args []string) int {
	flags, args := parseCommonFlags(args)
	ui := newUI(flags)

	targetStr, args := flagValue(args, "--target")
	var targets []string
	if targetStr != "" {
		targets = strings.Split(targetStr, ",")
	}
	targetOnly, args := flagPresent(args, "--target-only")
	_, args = flagPresent(args, "--all") // accepted and ignored: only targets named with --target are evaluated
	noHistory, args := flagPresent(args, "--no-history")
	raw, args := flagPresent(args, "--raw")
	force, args := flagPresent(args, "--force")
	forceShort, args := flagPresent(args, "-f")
	force = force || forceShort
	clean, args := flagPresent(args, "--clean")
	gitAuth, args := flagValue(args, "--git-auth")
	disableCache, args := flagPresent(args, "--disable-cache")
	cacheDirFlag, args := flagValue(args, "--cache-dir")
	strict, args := flagPresent(args, "--strict")
	disableIgnore, args := flagPresent(args, "--disable-ignore")
	_, args = flagPresent(args, "--compatible") // accepted and ignored: habitat_version is parsed but never checked
	onlyMain, args := flagPresent(args, "--main")
	if onlyMain {
		targets = nil
		targetOnly = false
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		ui.ShowError("Invalid root", err.Error())
		return core.ExitInvalidArguments
	}

	userCfg := loadUserConfig()
	cacheDir := resolveCacheDir(cacheDirFlag, userCfg)
	rc := buildRuntimeContext(ui, cacheDir, resolveConcurrency(userCfg))
	rc.Force = force
	rc.Clean = clean
	rc.Strict = strict
	rc.DisableCache = disableCache
	rc.DisableIgnore = disableIgnore
	rc.NoHistory = noHistory
	rc.Raw = raw
	if gitAuth != "" {
		rc.GitAuth = gitAuth
	} else if userCfg.GitAuth != "" {
		rc.GitAuth = userCfg.GitAuth
	}

	opts := core.FetchOptions{
		Force:         force,
		Clean:         clean,
		NoHistory:     noHistory,
		Raw:           raw,
		GitAuth:       rc.GitAuth,
		DisableCache:  disableCache,
		CacheDir:      cacheDir,
		Strict:        strict,
		DisableIgnore: disableIgnore,
	}

	sol := core.NewSolution(absRoot, rc)
	if err := sol.Sync(ctx, opts, targets, targetOnly); err != nil {
		ui.ShowError("Sync failed", err.Error())
		if flags.Mode == core.OutputJSON {
			_ = ui.FormatJSON(core.JSONOutput{
				Status: "error",
				Error:  &core.JSONError{Title: "Sync failed", Message: err.Error()},
				Data:   map[string]interface{}{"run_id": sol.RunID},
			})
		}
		return core.CLIExitCodeForError(err)
	}

	ui.ShowSuccess("Synced " + absRoot)
	if flags.Mode == core.OutputJSON {
		_ = ui.FormatJSON(core.JSONOutput{
			Status: "success",
			Data:   map[string]interface{}{"root": absRoot, "run_id": sol.RunID},
		})
	}
	return core.ExitSuccess
}

// runDeps implements the `deps` command: prints the resolved entries cache,
// optionally filtered by type or name. --target is accepted and ignored.
func runDeps(ctx context.Context, args []string) int {
	flags, args := parseCommonFlags(args)
	ui := newUI(flags)

	raw, args := flagPresent(args, "--raw")
	sourceStamp, args := flagPresent(args, "--source-stamp")
	format, args := flagValue(args, "--format")
	typeFilter, args := flagValue(args, "--type")
	nameFilter, args := flagValue(args, "--name")
	_, args = flagValue(args, "--target")           // accepted for CLI symmetry with sync; entries are already per-target resolved
	_, args = flagPresent(args, "--ignore-condition") // entries cache already omits condition-false nodes; flag kept for CLI compatibility

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		ui.ShowError("Invalid root", err.Error())
		return core.ExitInvalidArguments
	}

	git := core.NewSystemGitClient(false)
	cache := core.LoadEntriesCache(ctx, git, absRoot)

	for _, e := range cache.Entries {
		if typeFilter != "" && string(e.Type) != typeFilter {
			continue
		}
		if nameFilter != "" && e.Name != nameFilter {
			continue
		}
		switch {
		case raw:
			fmt.Println(e.Name)
		case sourceStamp:
			fmt.Printf("%s %s\n", e.Name, e.Stamp)
		case format != "":
			line := strings.NewReplacer(
				"{name}", e.Name,
				"{type}", string(e.Type),
				"{stamp}", e.Stamp,
				"{fetched_at}", e.FetchedAt,
			).Replace(format)
			fmt.Println(line)
		default:
			fmt.Printf("%-30s %-10s %s\n", e.Name, e.Type, e.Stamp)
		}
	}
	return core.ExitSuccess
}

// runClean removes the global object/artifact cache (with --cache), or by
// default clears the solution's entries cache tag so the next sync treats
// every node as unresolved.
func runClean(ctx context.Context, args []string) int {
	flags, args := parseCommonFlags(args)
	ui := newUI(flags)

	cleanCache, args := flagPresent(args, "--cache")
	force, args := flagPresent(args, "--force")
	forceShort, args := flagPresent(args, "-f")
	force = force || forceShort

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		ui.ShowError("Invalid root", err.Error())
		return core.ExitInvalidArguments
	}

	if cleanCache {
		userCfg := loadUserConfig()
		cacheDir := resolveCacheDir("", userCfg)
		if !force && !ui.AskConfirmation("Remove global cache", "This deletes "+cacheDir+". Continue?") {
			ui.ShowWarning("Aborted", "cache removal cancelled")
			return core.ExitGeneralError
		}
		fs := core.NewOSFileSystem()
		if err := fs.RemoveAll(cacheDir); err != nil {
			ui.ShowError("Clean failed", err.Error())
			return core.ExitGeneralError
		}
		ui.ShowSuccess("Removed " + cacheDir)
		return core.ExitSuccess
	}

	git := core.NewSystemGitClient(false)
	head, err := git.HEAD(ctx, absRoot)
	if err != nil {
		ui.ShowError("Clean failed", err.Error())
		return core.ExitGeneralError
	}
	if err := core.StoreEntriesCache(ctx, git, absRoot, nil); err != nil {
		ui.ShowError("Clean failed", err.Error())
		return core.ExitGeneralError
	}
	ui.ShowSuccess("Cleared entries cache for " + head)
	return core.ExitSuccess
}

// runConfig implements `config get <key>` / `config set <key> <value>` over
// the user-level config file ($HOME/.habitatrc.yml).
func runConfig(args []string) int {
	if len(args) < 2 {
		tui.PrintError("Invalid usage", "expected: config get <key> | config set <key> <value>")
		return core.ExitInvalidArguments
	}

	home, err := os.UserHomeDir()
	if err != nil {
		tui.PrintError("Config failed", err.Error())
		return core.ExitGeneralError
	}
	store := core.NewFileUserConfigStore(home)
	cfg, err := store.Load()
	if err != nil {
		tui.PrintError("Config failed", err.Error())
		return core.ExitGeneralError
	}

	action, key := args[0], args[1]
	switch action {
	case "get":
		switch key {
		case "cache_dir":
			fmt.Println(cfg.CacheDir)
		case "concurrency":
			fmt.Println(cfg.Concurrency)
		case "git_auth":
			fmt.Println(cfg.GitAuth)
		default:
			tui.PrintError("Unknown key", key)
			return core.ExitInvalidArguments
		}
		return core.ExitSuccess

	case "set":
		if len(args) < 3 {
			tui.PrintError("Invalid usage", "expected: config set <key> <value>")
			return core.ExitInvalidArguments
		}
		value := args[2]
		switch key {
		case "cache_dir":
			cfg.CacheDir = value
		case "concurrency":
			n, err := strconv.Atoi(value)
			if err != nil {
				tui.PrintError("Invalid value", "concurrency must be an integer")
				return core.ExitInvalidArguments
			}
			cfg.Concurrency = n
		case "git_auth":
			cfg.GitAuth = value
		default:
			tui.PrintError("Unknown key", key)
			return core.ExitInvalidArguments
		}
		if err := store.Save(cfg); err != nil {
			tui.PrintError("Config failed", err.Error())
			return core.ExitGeneralError
		}
		tui.PrintSuccess("Saved " + store.Path())
		return core.ExitSuccess

	default:
		tui.PrintError("Unknown action", action)
		return core.ExitInvalidArguments
	}
}

// runSetup loads the user config file (empty if absent), fills in cache_dir
// and concurrency where they are unset, writes it back, and warns if git is
// not available on PATH.
func runSetup(args []string) int {
	_, _ = parseCommonFlags(args)

	home, err := os.UserHomeDir()
	if err != nil {
		tui.PrintError("Setup failed", err.Error())
		return core.ExitGeneralError
	}
	store := core.NewFileUserConfigStore(home)
	cfg, err := store.Load()
	if err != nil {
		tui.PrintError("Setup failed", err.Error())
		return core.ExitGeneralError
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(home, core.DefaultCacheDirName)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = core.DefaultConcurrency
	}
	if err := store.Save(cfg); err != nil {
		tui.PrintError("Setup failed", err.Error())
		return core.ExitGeneralError
	}

	if !gitplumbing.IsInstalled() {
		tui.PrintWarning("git not found", "habitat requires git on PATH for git and solution nodes")
	}

	tui.PrintSuccess("Wrote " + store.Path() + " (cache_dir=" + cfg.CacheDir + ")")
	return core.ExitSuccess
}
