// Command markup-check renders stored events through the content pipeline and
// audits the resulting HTML: structure, unclosed tags, active content and
// empty URL attributes.
//
// Usage:
//
//	markup-check [flags] <event.json | dir>...
//
// Each file holds one event object or an array of events. Directories are
// scanned for *.json files. Mentions are left unresolved unless --relays is
// given.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"nostr-render/internal/content"
	"nostr-render/internal/relay"
	"nostr-render/internal/types"
)

type options struct {
	raw     bool
	strict  bool
	verbose bool
	relays  []string
	timeout time.Duration
	paths   []string
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("markup-check", flag.ContinueOnError)
	opts := &options{}
	fs.BoolVar(&opts.raw, "raw", false, "Check pipeline output before sanitizing")
	fs.BoolVar(&opts.strict, "strict", false, "Treat warnings as failures")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Print every event, not just failures")
	fs.StringSliceVar(&opts.relays, "relays", nil, "Relays used to resolve mentions (comma-separated)")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall time limit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.paths = fs.Args()
	if len(opts.paths) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "markup-check: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	var loader content.ProfileLoader
	if len(opts.relays) > 0 {
		loader = relay.NewLoader(relay.WithDefaultRelays(opts.relays))
	}
	renderer := content.NewRenderer(loader, nil, content.DefaultOptions())

	failed, err := run(ctx, os.Stdout, renderer, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "markup-check: %v\n", err)
		os.Exit(2)
	}
	if failed {
		os.Exit(1)
	}
}

// run checks every event under opts.paths and reports whether any failed.
func run(ctx context.Context, w io.Writer, renderer *content.Renderer, opts *options) (bool, error) {
	files, err := collectFiles(opts.paths)
	if err != nil {
		return false, err
	}

	policy := content.NewSanitizePolicy()
	var checked, errCount, warnCount int

	for _, file := range files {
		events, err := readEvents(file)
		if err != nil {
			return false, err
		}
		for i := range events {
			evt := &events[i]
			html, err := renderer.Render(ctx, evt)
			if err != nil {
				return false, fmt.Errorf("%s: event %s: %w", file, evt.ID, err)
			}
			if !opts.raw {
				html = policy.Sanitize(html)
			}

			results := CheckMarkup(html)
			checked++
			errCount += countSeverity(results, SeverityError)
			warnCount += countSeverity(results, SeverityWarning)

			if len(results) == 0 {
				if opts.verbose {
					fmt.Fprintf(w, "ok   %s %s\n", file, label(evt))
				}
				continue
			}
			fmt.Fprintf(w, "FAIL %s %s\n", file, label(evt))
			for _, r := range results {
				fmt.Fprintf(w, "     [%s] %s: %s\n", r.Severity, r.Rule, r.Message)
			}
		}
	}

	fmt.Fprintf(w, "\n%d events checked, %d errors, %d warnings\n", checked, errCount, warnCount)
	return errCount > 0 || (opts.strict && warnCount > 0), nil
}

func label(evt *types.Event) string {
	if evt.ID == "" {
		return fmt.Sprintf("(kind %d)", evt.Kind)
	}
	return fmt.Sprintf("%.12s (kind %d)", evt.ID, evt.Kind)
}

func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// readEvents accepts a single event object or an array of them.
func readEvents(path string) ([]types.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") {
		var events []types.Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return events, nil
	}

	var evt types.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []types.Event{evt}, nil
}
