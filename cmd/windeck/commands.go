package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/windeck/internal/ipc"
	"golang.org/x/term"
)

// parseFlags parses args and reports an exit code when parsing ended the
// command (help or a usage error).
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, true
		}
		return 2, true
	}
	return 0, false
}

func newFlagSet(name, usage, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: windeck %s\n", usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, summary)
		fs.PrintDefaults()
	}
	return fs
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "status [--json]", "Show daemon status via IPC.")
	asJSON := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	if code, done := parseFlags(fs, args); done {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		return fail(err)
	}
	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			return fail(err)
		}
		return 0
	}
	writeStatusTable(os.Stdout, status)
	return 0
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

func writeStatusTable(w io.Writer, st *ipc.StatusData) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "uptime_seconds:\t%d\n", st.UptimeSeconds)
	fmt.Fprintf(tw, "spotlight:\t%s\n", st.Spotlight.Phase)
	if st.Spotlight.Session != "" {
		fmt.Fprintf(tw, "  session:\t%s\n", st.Spotlight.Session)
		fmt.Fprintf(tw, "  windows:\t%s\n", listOrDash(st.Spotlight.Windows))
	}
	if st.Spotlight.Since != nil {
		fmt.Fprintf(tw, "  since:\t%s\n", st.Spotlight.Since.Format("15:04:05"))
	}
	fmt.Fprintf(tw, "snap_threshold:\t%dpx\n", st.Snap.Threshold)
	fmt.Fprintf(tw, "snapping:\t%s\n", listOrDash(st.Snap.Windows))
	fmt.Fprintf(tw, "revealing:\t%d\n", st.Revealing)
	fmt.Fprintf(tw, "sliding:\t%s\n", listOrDash(st.Sliding))
	tw.Flush()
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "reload", "Ask the daemon to re-read its configuration.")
	if code, done := parseFlags(fs, args); done {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		return fail(err)
	}
	fmt.Println("config reloaded")
	return 0
}

func runSpotlight(args []string) int {
	fs := newFlagSet("spotlight", "spotlight [--mode on|off|toggle] <window-id>...",
		"Raise the given windows above a dimming backdrop, or end the session.")
	mode := fs.String("mode", "toggle", "on, off or toggle")
	if code, done := parseFlags(fs, args); done {
		return code
	}
	m, err := ipc.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if fs.NArg() == 0 && m != ipc.ModeOff {
		fmt.Fprintln(os.Stderr, "spotlight requires at least one window id")
		fs.Usage()
		return 2
	}

	res, err := ipc.NewClient().Spotlight(fs.Args(), m)
	if err != nil {
		return fail(err)
	}
	printToggle("spotlight", res)
	return 0
}

func runSnap(args []string) int {
	fs := newFlagSet("snap", "snap [--mode on|off|toggle] <window-id>",
		"Change live edge snapping for a window.")
	mode := fs.String("mode", "toggle", "on, off or toggle")
	if code, done := parseFlags(fs, args); done {
		return code
	}
	m, err := ipc.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "snap requires exactly one window id")
		fs.Usage()
		return 2
	}

	res, err := ipc.NewClient().Snap(fs.Arg(0), m)
	if err != nil {
		return fail(err)
	}
	printToggle("snap", res)
	return 0
}

func printToggle(what string, res *ipc.ToggleData) {
	state := "off"
	if res.Active {
		state = "on"
	}
	if !res.Changed {
		fmt.Printf("%s: %s (unchanged)\n", what, state)
		return
	}
	fmt.Printf("%s: %s\n", what, state)
}

func runRestore(args []string) int {
	fs := newFlagSet("restore", "restore <window-id> <identity>",
		"Hide the window, apply the state saved under identity, then fade it in.")
	if code, done := parseFlags(fs, args); done {
		return code
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "restore requires <window-id> <identity>")
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Restore(fs.Arg(0), fs.Arg(1)); err != nil {
		return fail(err)
	}
	return 0
}

func runPersist(args []string) int {
	fs := newFlagSet("persist", "persist <window-id> [identity]",
		"Save the window's geometry and decoration. Identity defaults to the one used at restore.")
	if code, done := parseFlags(fs, args); done {
		return code
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "persist requires <window-id> [identity]")
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Persist(fs.Arg(0), fs.Arg(1)); err != nil {
		return fail(err)
	}
	return 0
}

func runSlide(args []string) int {
	fs := newFlagSet("slide", "slide [--duration MS] <window-id> <x> <y> | slide --cancel <window-id>",
		"Animate a window to x,y in root coordinates.")
	duration := fs.Int("duration", 0, "Animation length in milliseconds (0: configured default)")
	cancel := fs.Bool("cancel", false, "Cancel a running slide and return the window to its origin")
	if code, done := parseFlags(fs, args); done {
		return code
	}

	client := ipc.NewClient()
	if *cancel {
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "slide --cancel requires <window-id>")
			return 2
		}
		if err := client.CancelSlide(fs.Arg(0)); err != nil {
			return fail(err)
		}
		return 0
	}

	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "slide requires <window-id> <x> <y>")
		fs.Usage()
		return 2
	}
	x, y, err := parsePoint(fs.Arg(1), fs.Arg(2))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *duration < 0 {
		fmt.Fprintln(os.Stderr, "--duration must be >= 0")
		return 2
	}
	if err := client.Slide(fs.Arg(0), x, y, *duration); err != nil {
		return fail(err)
	}
	return 0
}

func parsePoint(xs, ys string) (int, int, error) {
	var x, y int
	if _, err := fmt.Sscanf(xs, "%d", &x); err != nil {
		return 0, 0, fmt.Errorf("invalid x %q", xs)
	}
	if _, err := fmt.Sscanf(ys, "%d", &y); err != nil {
		return 0, 0, fmt.Errorf("invalid y %q", ys)
	}
	return x, y, nil
}

func runDecorate(args []string) int {
	fs := newFlagSet("decorate", "decorate <window-id> on|off",
		"Show or hide window decorations. During a reveal the request is deferred until it finishes.")
	if code, done := parseFlags(fs, args); done {
		return code
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "decorate requires <window-id> on|off")
		fs.Usage()
		return 2
	}
	var on bool
	switch fs.Arg(1) {
	case "on", "true", "yes":
		on = true
	case "off", "false", "no":
	default:
		fmt.Fprintf(os.Stderr, "invalid decoration state %q (want on or off)\n", fs.Arg(1))
		return 2
	}
	if err := ipc.NewClient().Decorate(fs.Arg(0), on); err != nil {
		return fail(err)
	}
	return 0
}
