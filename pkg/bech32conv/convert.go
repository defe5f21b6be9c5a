package bech32conv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LineError describes an input line that could not be converted
type LineError struct {
	Line    int
	Address string
	Err     error
}

// Result summarises a batch conversion
type Result struct {
	Converted int
	Skipped   []LineError
}

// ConvertLines reads one address per line from r and writes each re-encoded address to w on its own line.
// Blank lines are ignored and invalid addresses are skipped and reported in the result.
func ConvertLines(r io.Reader, w io.Writer, prefix string) (Result, error) {
	var (
		res     Result
		codec   Reencoder
		scanner = bufio.NewScanner(r)
		out     = bufio.NewWriter(w)
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		address := strings.TrimSpace(scanner.Text())
		if address == "" {
			continue
		}

		converted, err := codec.Reencode(address, prefix)
		if errors.Is(err, ErrEmptyPrefix) {
			return res, err
		}
		if err != nil {
			res.Skipped = append(res.Skipped, LineError{Line: lineNo, Address: address, Err: err})
			continue
		}

		if _, err := fmt.Fprintln(out, converted); err != nil {
			return res, fmt.Errorf("writing line %d: %w", lineNo, err)
		}
		res.Converted++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading input: %w", err)
	}

	return res, out.Flush()
}

// ConvertFile converts every address in inputPath and writes the result to outputPath.
// The output file only appears once the whole input has been converted.
func ConvertFile(inputPath, outputPath, prefix string) (res Result, err error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return Result{}, fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	res, err = ConvertLines(in, tmp, prefix)
	if err != nil {
		return res, err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return res, fmt.Errorf("setting output mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return res, fmt.Errorf("closing output: %w", err)
	}
	if err = os.Rename(tmp.Name(), outputPath); err != nil {
		return res, fmt.Errorf("moving output into place: %w", err)
	}
	return res, nil
}
