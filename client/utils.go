package client

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"
)

var pollInterval = time.Second

// SubscribeToFileInput emits every non-empty line of file. At the end of
// the input it keeps polling for appended lines until ctx is done, like
// tail -f. The lines channel is closed when reading stops.
func SubscribeToFileInput(ctx context.Context, file io.Reader) (<-chan string, <-chan error) {
	reader := bufio.NewReader(file)
	lines := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(lines)
		line := make([]byte, 0)
		for {
			partOfLine, err := reader.ReadBytes('\n')
			line = append(line, partOfLine...)

			if err == nil {
				text := strings.TrimRight(string(line), "\r\n")
				line = line[:0]
				if len(text) == 0 {
					continue
				}
				select {
				case lines <- text:
				case <-ctx.Done():
					return
				}
				continue
			}

			if err != io.EOF {
				errChan <- err
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
		}
	}()

	return lines, errChan
}
