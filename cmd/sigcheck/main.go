// Command sigcheck resolves calls against a YAML fixture of overload
// declarations and prints how each argument would be passed.
//
//	sigcheck [-config cppi.yaml] [-v] fixture.yaml
//	sigcheck recognize <Start> <token>...
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/registry"
	"github.com/funvibe/cppi/internal/signature"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
)

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok {
		p.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + colorReset
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  sigcheck [-config cppi.yaml] [-v] <fixture.yaml>\n")
	fmt.Fprintf(w, "  sigcheck recognize <Start> <token>...\n")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "recognize" {
		return handleRecognize(args[1:], stdout, stderr)
	}

	var configPath, fixturePath string
	verbose := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config", "--config":
			if i+1 >= len(args) {
				usage(stderr)
				return 2
			}
			i++
			configPath = args[i]
		case "-v", "--verbose":
			verbose = true
		case "-h", "-help", "--help", "help":
			usage(stdout)
			return 0
		default:
			if fixturePath != "" || strings.HasPrefix(args[i], "-") {
				usage(stderr)
				return 2
			}
			fixturePath = args[i]
		}
	}
	if fixturePath == "" {
		usage(stderr)
		return 2
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 1
		}
		cfg = loaded
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fx, err := loadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	r, err := registry.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	if err := fx.install(r); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	if !resolveAll(r, fx, newPrinter(stdout)) {
		return 1
	}
	return 0
}

// resolveAll prints one block per call and reports whether all resolved.
func resolveAll(r *registry.Registry, fx *Fixture, p *printer) bool {
	ok := true
	for _, c := range fx.Calls {
		domain := domainOrGlobal(c.Domain)
		args, explicit, err := c.args(r.Grammar())
		if err != nil {
			fmt.Fprintf(p.w, "%s %s::%s: %s\n", p.paint(colorRed, "ERROR"), domain, c.Name, err)
			ok = false
			continue
		}
		res, err := r.Resolve(domain, c.Name, args, explicit...)
		if err != nil {
			fmt.Fprintf(p.w, "%s %s\n", p.paint(colorRed, "FAIL"), err)
			ok = false
			continue
		}
		fmt.Fprintf(p.w, "%s %s::%s -> %s\n", p.paint(colorGreen, "OK"), domain, c.Name, res.Overload.Signature())
		for i, a := range res.Match.Actions {
			fmt.Fprintf(p.w, "  arg %d: %s\n", i, a)
		}
		if res.Match.Return != nil {
			fmt.Fprintf(p.w, "  returns: %s\n", strings.Join(res.Match.Return, " "))
		}
	}
	return ok
}

func handleRecognize(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	g := signature.Default()
	start, tokens := args[0], args[1:]
	if len(tokens) == 1 {
		tokens = strings.Fields(tokens[0])
	}
	if _, err := g.Compile(tokens, start, true); err != nil {
		fmt.Fprintf(stdout, "rejected: %s\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "accepted\n")
	return 0
}
