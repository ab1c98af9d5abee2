/*
Koto runs a Koto script file to completion and exits.

It is a non-interactive script runner; it does not provide a REPL or
line-editing session.

Usage:

	koto [flags] SCRIPT [args...]

The flags are:

	-v, --version
		Give the current version of Koto and then exit.

	-c, --command SOURCE
		Run the given source directly instead of reading SCRIPT from disk.

Any arguments after SCRIPT are passed through to the running script as
env.args.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/koto"
	"github.com/dekarrin/koto/internal/koto/cache"
	"github.com/dekarrin/koto/internal/koto/modules"
	"github.com/dekarrin/koto/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitRunError indicates an unsuccessful program execution due to a
	// parse or runtime error in the script itself.
	ExitRunError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue reading the script or its arguments.
	ExitInitError
)

var (
	returnCode  int     = ExitSuccess
	flagVersion *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	command     *string = pflag.StringP("command", "c", "", "Run the given source directly instead of reading a script file")
	configPath  *string = pflag.String("config", "koto.toml", "Path to an optional TOML config file (cache dir, module search paths)")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	cfg, err := loadTOMLConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "koto: %v\n", err)
		returnCode = ExitInitError
		return
	}

	var source string
	var scriptPath string
	var scriptArgs []string

	if *command != "" {
		source = *command
		scriptArgs = pflag.Args()
	} else {
		args := pflag.Args()
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "koto: no script given; use -c to run source directly or pass a script path")
			returnCode = ExitInitError
			return
		}
		scriptPath = args[0]
		scriptArgs = args[1:]

		data, err := os.ReadFile(scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "koto: %v\n", err)
			returnCode = ExitInitError
			return
		}
		source = string(data)
	}

	interp := koto.New()
	interp.SetArgs(scriptArgs)
	interp.SetScriptPath(scriptPath)
	modules.RegisterList(interp.Runtime())
	modules.RegisterMap(interp.Runtime())

	var astCache *cache.Store
	if cfg.CacheDir != "" {
		astCache, err = cache.Open(cfg.CacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "koto: could not open cache dir: %v\n", err)
			returnCode = ExitInitError
			return
		}
	}

	ast, err := cache.ParseCached(astCache, source)
	if err != nil {
		fmt.Fprint(os.Stderr, koto.RenderError(err))
		returnCode = ExitRunError
		return
	}

	if _, err := interp.RunProgram(koto.ProgramFromAST(ast)); err != nil {
		fmt.Fprint(os.Stderr, koto.RenderError(err))
		returnCode = ExitRunError
		return
	}
}
