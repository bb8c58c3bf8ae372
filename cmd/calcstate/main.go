//go:build !tinygo

// Command calcstate inspects or edits the calculator state stored in a host
// flash image.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"

	"sparkcalc/hal"
	"sparkcalc/internal/hostcfg"
	"sparkcalc/sparkos/calc"
	"sparkcalc/sparkos/fs/record"
)

const usage = `usage: calcstate [-flash path] [-offset n] <command> [flags]

commands:
  show                          print the stored state
  set -acc N -operand N -op OP  replace the stored state
  reset                         erase the stored state
  watch                         print the state whenever the image changes
`

const watchDebounce = 50 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("calcstate: bad usage")

func run(ctx context.Context, args []string, out io.Writer) error {
	env, err := hostcfg.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("calcstate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }
	flashPath := fs.String("flash", env.FlashPath, "Flash image path.")
	offset := env.StateOffset
	hostcfg.Uint32Var(fs, &offset, "offset", "Flash offset of the state block.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var flash *hal.FileFlash
	switch cmd {
	case "show", "watch":
		flash, err = hal.OpenFlashFileReadOnly(*flashPath)
	case "set", "reset":
		flash, err = hal.OpenFlashFile(*flashPath, env.FlashSize)
	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err != nil {
		return err
	}
	defer flash.Close()

	store, err := record.New(flash, offset)
	if err != nil {
		return err
	}

	switch cmd {
	case "show":
		return show(store, out)
	case "set":
		return set(store, rest, out)
	case "reset":
		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(out, "state erased")
		return nil
	default:
		return watch(ctx, store, *flashPath, out)
	}
}

func show(store *record.Store, out io.Writer) error {
	b, err := store.Load()
	if errors.Is(err, record.ErrNoRecord) {
		fmt.Fprintln(out, "no state")
		return nil
	}
	if err != nil {
		return err
	}
	var snap calc.Snapshot
	if err := snap.UnmarshalBinary(b); err != nil {
		return err
	}
	printSnapshot(out, snap)
	return nil
}

func set(store *record.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(out)
	acc := fs.String("acc", "", "Accumulator value (empty = absent).")
	operand := fs.Float64("operand", 0, "Operand buffer value.")
	opSym := fs.String("op", "=", "Pending operator: = + - * / %.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	op, ok := calc.ParseOp(*opSym)
	if !ok {
		return fmt.Errorf("%w: unknown operator %q", errUsage, *opSym)
	}
	snap := calc.Snapshot{OperandBuffer: *operand, PendingOperator: op}
	if *acc != "" {
		v, err := strconv.ParseFloat(*acc, 64)
		if err != nil {
			return fmt.Errorf("%w: accumulator: %v", errUsage, err)
		}
		snap.Accumulator = calc.Some(v)
	}

	b, err := snap.MarshalBinary()
	if err != nil {
		return err
	}
	if err := store.Save(b); err != nil {
		return err
	}
	printSnapshot(out, snap)
	return nil
}

// watch prints the state now and after every settled change to the image.
func watch(ctx context.Context, store *record.Store, path string, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	last, _ := store.Load()
	if err := show(store, out); err != nil {
		return err
	}

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				settle = time.After(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "watch error: %v\n", err)
		case <-settle:
			settle = nil
			cur, _ := store.Load()
			if bytes.Equal(cur, last) {
				continue
			}
			last = cur
			fmt.Fprintln(out, "--")
			if err := show(store, out); err != nil {
				fmt.Fprintf(out, "watch: %v\n", err)
			}
		}
	}
}

func printSnapshot(out io.Writer, snap calc.Snapshot) {
	fmt.Fprintf(out, "accumulator: %s\n", snap.Accumulator)
	fmt.Fprintf(out, "operand:     %s\n", calc.FormatResult(snap.OperandBuffer))
	fmt.Fprintf(out, "pending:     %s\n", snap.PendingOperator)
}
