package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/akamensky/argparse"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/term"

	"github.com/andesco/proxiedamp/handlers"
	"github.com/andesco/proxiedamp/pkg/deps"
	"github.com/andesco/proxiedamp/pkg/proxiedamp"
)

func main() {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(os.Args, os.Stdout, tty); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer, tty bool) error {
	parser := argparse.NewParser("proxiedamp", "AMP dev-mode and loopback helpers for CDN-fronted sites")

	hostFile := parser.String("s", "host", &argparse.Options{
		Required: false,
		Default:  os.Getenv("HOST_FILE"),
		Help:     "YAML snapshot of the host's asset registries",
	})

	closureCmd := parser.NewCommand("closure", "Print a handle and its transitive dependencies")
	kind := closureCmd.Selector("k", "kind", []string{string(proxiedamp.KindScripts), string(proxiedamp.KindStyles)}, &argparse.Options{
		Default: string(proxiedamp.KindScripts),
		Help:    "Registry to resolve against",
	})
	handle := closureCmd.String("n", "handle", &argparse.Options{
		Default: proxiedamp.DefaultDevModeHandle,
		Help:    "Handle to resolve",
	})
	registryFile := closureCmd.String("r", "registry", &argparse.Options{
		Help: "YAML dependency map used instead of --host",
	})

	annotateCmd := parser.NewCommand("annotate", "Mark dev-mode tags in a rendered HTML page")
	pageFile := annotateCmd.String("f", "file", &argparse.Options{Required: true, Help: "HTML file to annotate"})
	forceAMP := annotateCmd.Flag("a", "amp", &argparse.Options{Help: "Treat the page as AMP"})

	xpathsCmd := parser.NewCommand("xpaths", "Print the dev-mode XPath rules")
	hooksCmd := parser.NewCommand("hooks", "Print the host extension points")

	serveCmd := parser.NewCommand("serve", "Serve a directory of rendered pages with dev-mode marking")
	port := serveCmd.String("p", "port", &argparse.Options{
		Default: getenv("PORT", "8080"),
		Help:    "Port the preview server listens on",
	})
	dir := serveCmd.String("d", "dir", &argparse.Options{Default: ".", Help: "Directory to serve"})

	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stdout, parser.Usage(err))
		return fmt.Errorf("invalid arguments: %w", err)
	}

	cfg, err := proxiedamp.LoadConfig()
	if err != nil {
		return err
	}

	host, err := loadHost(*hostFile)
	if err != nil {
		return err
	}

	switch {
	case closureCmd.Happened():
		var set deps.Set
		if *registryFile != "" {
			reg, err := deps.LoadMap(*registryFile)
			if err != nil {
				return err
			}
			set = deps.Closure(reg, nil, *handle)
		} else {
			set, err = proxiedamp.Bootstrap(host, cfg).Closure(proxiedamp.AssetKind(*kind), *handle)
			if err != nil {
				return err
			}
		}
		return printList(stdout, tty, set.Sorted())

	case annotateCmd.Happened():
		if *forceAMP {
			host.AMP = true
		}
		raw, err := os.ReadFile(*pageFile)
		if err != nil {
			return fmt.Errorf("failed to read page '%s': %w", *pageFile, err)
		}
		out, err := proxiedamp.Bootstrap(host, cfg).NewAnnotator(nil).AnnotateDocument(string(raw))
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, out)
		return err

	case xpathsCmd.Happened():
		return printList(stdout, tty, proxiedamp.Bootstrap(host, cfg).DevModeXPaths(nil))

	case hooksCmd.Happened():
		return printHooks(stdout, tty)

	case serveCmd.Happened():
		p := proxiedamp.Bootstrap(host, cfg)
		app := fiber.New(fiber.Config{DisableStartupMessage: !tty})
		app.Use(handlers.DevMode(p))
		handlers.Register(app, p)
		app.Static("/", *dir)
		log.Printf("INFO: serving %s on :%s", *dir, *port)
		return app.Listen(":" + *port)
	}

	fmt.Fprint(stdout, parser.Usage(nil))
	return nil
}

func loadHost(path string) (*proxiedamp.StaticHost, error) {
	if path == "" {
		log.Printf("WARN: No host file specified. Set the `HOST_FILE` environment variable or pass --host.")
		return &proxiedamp.StaticHost{AMPQueryVar: "amp"}, nil
	}
	return proxiedamp.LoadStaticHost(path)
}

func printList(w io.Writer, tty bool, items []string) error {
	if !tty {
		return json.NewEncoder(w).Encode(items)
	}
	_, err := fmt.Fprintln(w, strings.Join(items, "\n"))
	return err
}

func printHooks(w io.Writer, tty bool) error {
	if !tty {
		return json.NewEncoder(w).Encode(proxiedamp.Hooks)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tHANDLER\tEFFECT")
	for _, h := range proxiedamp.Hooks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Event, h.Handler, h.Effect)
	}
	return tw.Flush()
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
