package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"shard-go/internal/shard"
)

// Exit codes by error category.
const (
	exitOther         = 1
	exitValidation    = 2
	exitCrypto        = 3
	exitNotFound      = 4
	exitExists        = 5
	exitSerialization = 6
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, shard.ErrValidation):
		return exitValidation
	case errors.Is(err, shard.ErrCrypto):
		return exitCrypto
	case errors.Is(err, shard.ErrNotFound):
		return exitNotFound
	case errors.Is(err, shard.ErrExists):
		return exitExists
	case errors.Is(err, shard.ErrSerialization):
		return exitSerialization
	default:
		return exitOther
	}
}

// readPassword prompts on the terminal with echo off, or reads one line from
// stdin when fromStdin is set. With confirm the password is asked twice.
func readPassword(prompt string, confirm, fromStdin bool) ([]byte, error) {
	if fromStdin {
		return readPasswordLine(os.Stdin)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: stdin is not a terminal; use --password-stdin", shard.ErrValidation)
	}

	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if !confirm {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Confirm: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	defer clear(again)
	if err != nil {
		clear(pw)
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if !bytes.Equal(pw, again) {
		clear(pw)
		return nil, fmt.Errorf("%w: passwords do not match", shard.ErrValidation)
	}
	return pw, nil
}

// readPasswordLine returns the first line of r without its line ending.
func readPasswordLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		clear(line)
		return nil, fmt.Errorf("reading password: %w", err)
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty password", shard.ErrValidation)
	}
	return line, nil
}

func printHistory(w io.Writer, ops []*shard.Operation, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if ops == nil {
			ops = []*shard.Operation{}
		}
		if err := enc.Encode(ops); err != nil {
			return fmt.Errorf("encoding history: %w", err)
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("%w: unknown format %q", shard.ErrValidation, format)
	}

	if len(ops) == 0 {
		fmt.Fprintln(w, "No operations recorded.")
		return nil
	}
	for _, op := range ops {
		duration := ""
		if op.FinishedAt != nil {
			duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
		}
		fmt.Fprintf(w, "#%d  %-8s  %-25s  %s  %-7s  %s\n",
			op.ID,
			op.Kind,
			op.ShareSet,
			op.StartedAt.Format("2006-01-02 15:04:05"),
			op.Status,
			duration,
		)
		if op.Error != "" {
			fmt.Fprintf(w, "    %s\n", op.Error)
		}
	}
	return nil
}
