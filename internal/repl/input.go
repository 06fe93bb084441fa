package repl

import (
	"bufio"
	"context"
	"io"
	"strings"
)

type lineResult struct {
	line string
	err  error
}

// lineReader reads console lines of any length without blocking the caller
// past context cancellation. Each read runs in its own goroutine; a read
// abandoned by cancellation is picked up by the next ReadLine instead of
// being lost.
type lineReader struct {
	r       *bufio.Reader
	results chan lineResult
	pending bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r:       bufio.NewReader(r),
		results: make(chan lineResult, 1),
	}
}

// ReadLine returns the next line without its line ending. A final line
// without a newline is returned before io.EOF.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !l.pending {
		l.pending = true
		go func() {
			line, err := l.r.ReadString('\n')
			if err == io.EOF && line != "" {
				err = nil
			}
			l.results <- lineResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-l.results:
		l.pending = false
		return strings.TrimRight(res.line, "\r\n"), res.err
	}
}
