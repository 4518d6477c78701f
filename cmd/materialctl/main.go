// materialctl управляет таблицей идентификаторов материалов мира:
// просмотр, регистрация, стандартный набор, маски данных и генерация буферов.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

type options struct {
	configPath string
	world      string
	backend    string
	seed       int64
	size       int
	height     int
	out        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "materialctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("materialctl", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to YAML config (default: $GAME_CONFIG)")
	flagSet.StringVarP(&opts.world, "world", "w", "", "world root directory (overrides config)")
	flagSet.StringVarP(&opts.backend, "backend", "b", "", "name store backend: memory, file, badger, redis, maria, mongo")
	flagSet.Int64Var(&opts.seed, "seed", 1, "terrain seed for generate")
	flagSet.IntVar(&opts.size, "size", 16, "generated buffer width along X and Z")
	flagSet.IntVar(&opts.height, "height", 128, "generated buffer height")
	flagSet.StringVarP(&opts.out, "out", "o", "", "write generated buffer to this file instead of the buffer store")
	flagSet.Usage = func() { printHelp(stdout, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stdout, flagSet)
		return fmt.Errorf("no command given")
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}
	if len(rest)-1 < cmd.minArgs || len(rest)-1 > cmd.maxArgs {
		return fmt.Errorf("%s: usage: materialctl %s %s", rest[0], rest[0], cmd.usage)
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	return cmd.run(ctx, s, rest[1:], stdout)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: materialctl [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Fprintf(w, "  %-9s %-14s %s\n", name, c.usage, c.help)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, flagSet.FlagUsages())
}
