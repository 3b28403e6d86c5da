package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/windeck/internal/config"
	"gopkg.in/yaml.v3"
)

func loadResult(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  windeck config init [--path PATH]")
		fmt.Fprintln(os.Stderr, "  windeck config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  windeck config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  windeck config explain [--path PATH] <yaml.path>")
		fmt.Fprintln(os.Stderr, "  windeck config paths")
		return 2
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/windeck/config.yaml)")

	switch args[0] {
	case "init":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		target := *path
		if target == "" {
			var err error
			if target, err = config.DefaultConfigPath(); err != nil {
				return fail(err)
			}
		}
		if err := config.WriteDefault(target); err != nil {
			return fail(err)
		}
		fmt.Printf("wrote %s\n", target)
		return 0

	case "validate":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if _, err := loadResult(*path); err != nil {
			return fail(err)
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadResult(*path)
			if err != nil {
				return fail(err)
			}
			cfg = res.Config
			for _, f := range res.Files {
				fmt.Printf("# file: %s\n", f)
			}
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fail(err)
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadResult(*path)
		if err != nil {
			return fail(err)
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			return fail(err)
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", src)
		fmt.Printf("value:\n%s", string(out))
		return 0

	case "paths":
		for _, p := range config.Paths() {
			fmt.Println(p)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
