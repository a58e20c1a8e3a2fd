// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// maxLineLength bounds a single output line. Longer lines end the scan of
// that stream; the remainder is still drained so the child never blocks.
const maxLineLength = 1 << 20

// Invoke runs the engine binary with args and drains stdout and stderr
// concurrently. Stdout lines are logged at info level and the last non-empty
// one is kept; stderr lines are logged at error level. The loop ends only
// once both streams have reached end-of-stream, after which the process is
// waited on. A non-zero exit status yields a BuilderFailedError.
func (e *BaseCLIEngine) Invoke(ctx context.Context, args ...string) (*InvocationResult, error) {
	if e.binaryPath == "" {
		return nil, &EngineNotAvailableError{Engine: e.name, Reason: "executable not found on PATH"}
	}

	cmd := e.CreateCommand(ctx, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attach stdout of %s: %w", e.name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("attach stderr of %s: %w", e.name, err)
	}

	logger := e.logger.WithPrefix(e.name)
	logger.Debug("invoking", "binary", e.binaryPath, "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", e.name, err)
	}

	var g errgroup.Group
	outCh := make(chan string)
	errCh := make(chan string)
	g.Go(func() error { return scanLines(stdout, outCh) })
	g.Go(func() error { return scanLines(stderr, errCh) })

	res := &InvocationResult{}
	for outCh != nil || errCh != nil {
		select {
		case line, ok := <-outCh:
			if !ok {
				outCh = nil
				continue
			}
			res.StdoutLines++
			logger.Info(line)
			res.LastLine = strings.TrimRightFunc(line, unicode.IsSpace)
		case line, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			res.StderrLines++
			logger.Error(line)
		}
	}

	// Both pipes hit EOF; the readers are done and Wait may close them.
	scanErr := g.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, fmt.Errorf("wait for %s: %w", e.name, waitErr)
		}
		res.ExitCode = exitErr.ExitCode()
		return res, &BuilderFailedError{Engine: e.name, Args: args, ExitCode: res.ExitCode}
	}
	if scanErr != nil {
		return res, fmt.Errorf("read output of %s: %w", e.name, scanErr)
	}

	return res, nil
}

// scanLines sends each line of r to ch and closes ch when r is exhausted.
// On a scan error the rest of r is discarded so the writer is not blocked.
func scanLines(r io.Reader, ch chan<- string) error {
	defer close(ch)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for sc.Scan() {
		ch <- sc.Text()
	}
	if err := sc.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}
