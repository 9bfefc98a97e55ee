package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/inspect"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Shell is the interactive codec console.
type Shell struct {
	formatter *inspect.Formatter
	tags      *wire.TagTable
	rl        *readline.Instance
}

// NewShell creates a shell. Call Run to start reading from the terminal.
func NewShell(f *inspect.Formatter) *Shell {
	if f == nil {
		f = inspect.NewFormatter(nil)
	}
	return &Shell{formatter: f, tags: wire.DefaultTagTable()}
}

func (s *Shell) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("encode", readline.PcItemDynamic(listYAMLFiles)),
		readline.PcItem("decode"),
		readline.PcItem("resolve"),
		readline.PcItem("tags"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// listYAMLFiles offers the YAML files of the working directory.
func listYAMLFiles(string) []string {
	entries, err := os.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && (strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			names = append(names, e.Name())
		}
	}
	return names
}

// Run starts the interactive command loop.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cloudcmd> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	s.rl = rl
	defer rl.Close()

	s.printHelp(rl.Stdout())

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return nil
		}
		if quit := s.Execute(line, rl.Stdout()); quit {
			return nil
		}
	}
}

// Execute runs one shell line and reports whether the shell should exit.
func (s *Shell) Execute(line string, w io.Writer) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp(w)

	case "tags", "t":
		fmt.Fprint(w, s.formatter.FormatTagTable(s.tags.Rows()))

	case "encode", "e":
		s.cmdEncode(args, w)

	case "decode", "d":
		s.cmdDecode(args, w)

	case "resolve", "r":
		s.cmdResolve(args, w)

	case "quit", "exit", "q":
		fmt.Fprintln(w, "Exiting...")
		return true

	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Commands:
  encode <file.yaml>   - Encode the command documents in a file
  decode <hex>         - Decode a hex encoded command
  resolve <name|tag>   - Show the tag of a command or the command of a tag
  tags                 - Show the tag table
  help                 - Show this help
  quit                 - Exit`)
}

func (s *Shell) cmdEncode(args []string, w io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: encode <file.yaml>")
		return
	}
	if err := RunEncode(args[0], FormatHex, w); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

func (s *Shell) cmdDecode(args []string, w io.Writer) {
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: decode <hex>")
		return
	}
	data, err := hex.DecodeString(strings.TrimPrefix(strings.Join(args, ""), "0x"))
	if err != nil {
		fmt.Fprintf(w, "Error: invalid hex: %v\n", err)
		return
	}
	msg, err := wire.Decode(data)
	if err != nil {
		fmt.Fprintln(w, s.formatter.FormatDecodeError(data, err))
		return
	}
	out, err := s.formatter.FormatMessage(msg, data)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprint(w, out)
}

func (s *Shell) cmdResolve(args []string, w io.Writer) {
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: resolve <name|tag>")
		return
	}
	tag, id, err := inspect.ResolveTag(s.tags, strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s  %s\n", tag, id)
}
