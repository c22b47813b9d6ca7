package logs

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

// DefaultTailLines bounds Tail output when the caller passes no limit.
const DefaultTailLines = 50

// Tail returns up to limit trailing lines from the file at path and the byte
// offset just past the content it examined. A missing file yields no lines
// and a zero offset so callers can start following before the first write.
func Tail(path string, limit int) ([]string, int64, error) {
	if limit <= 0 {
		limit = DefaultTailLines
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, err
	}
	size := info.Size()

	// Ring buffer keeps only the trailing lines while streaming the file
	// once from the front.
	ring := make([]string, limit)
	count := 0
	scanner := bufio.NewScanner(io.LimitReader(file, size))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[count%limit] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	n := count
	if n > limit {
		n = limit
	}
	lines := make([]string, 0, n)
	for i := count - n; i < count; i++ {
		lines = append(lines, ring[i%limit])
	}
	return lines, size, nil
}

// Follow polls the file for lines appended after offset and hands each
// complete line to emit. A shrinking file is treated as a rotation and read
// again from the start. Follow blocks until ctx is done and then returns
// ctx.Err().
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, emit func(string)) error {
	if poll <= 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			lines, next, err := readFrom(path, offset)
			if err != nil {
				return err
			}
			for _, line := range lines {
				emit(line)
			}
			offset = next
		}
	}
}

// readFrom returns the complete lines between offset and the end of the file.
// A trailing fragment without a newline stays unread until a later poll sees
// it finished.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, offset, nil
		}
		return nil, 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, err
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, err
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
			offset += int64(len(line))
			continue
		}
		if errors.Is(err, io.EOF) {
			return lines, offset, nil
		}
		return nil, 0, err
	}
}
