// Package encode spawns the external ffmpeg processes that turn one window
// of a source file into a fragmented-MP4 video track, a fragmented-MP4
// audio track, or a WebVTT subtitle stream, and drains their standard
// output into an in-memory buffer.
package encode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"

	"github.com/acomagu/bufpipe"
)

// keyframeIntervalSeconds forces a new keyframe every 2s so a chunk always
// begins on one (spec.md §4.2).
const keyframeIntervalSeconds = 2

// Runner spawns ffmpeg processes for the three track encoders.
type Runner struct {
	FFmpegPath string
}

// New returns a Runner using ffmpegPath, or "ffmpeg" on PATH if empty.
func New(ffmpegPath string) *Runner {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Runner{FFmpegPath: ffmpegPath}
}

// forceKeyframeExpr formats a forced-keyframe expression for ffmpeg's -force_key_frames
// "expr:" mini-language: one keyframe every keyframeIntervalSeconds.
func forceKeyframeExpr() string {
	return fmt.Sprintf("expr:gte(t,n_forced*%s)", strconv.Itoa(keyframeIntervalSeconds))
}

// run spawns name with args and drains its stdout to EOF into a buffer.
// A failure to start the process is fatal (spec.md §4.2/§7: "encoder spawn
// failure" aborts the whole chunk request). Once started, a read error on
// stdout is logged and the partial buffer already read is returned as-is —
// spec.md treats that as reaching end-of-stream, not as a request failure.
//
// Stdout is drained through an acomagu/bufpipe buffer rather than read
// directly off the exec.Cmd pipe: the kernel pipe ffmpeg writes into has a
// fixed capacity, and a slow or blocked consumer on our side would stall
// ffmpeg mid-frame. bufpipe grows unbounded in memory, so the copy goroutine
// never blocks on our caller's pace.
func run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	pr, pw := bufpipe.New(nil)
	cmd.Stdout = pw

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("attach stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	go logStderr(name, stderr)

	go func() {
		waitErr := cmd.Wait()
		if waitErr != nil {
			log.Printf("[encode] %s exited with error: %v", name, waitErr)
		}
		pw.Close()
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, pr); err != nil {
		log.Printf("[encode] read error from %s, returning partial buffer (%d bytes): %v", name, buf.Len(), err)
	}
	return buf.Bytes(), nil
}

func logStderr(name string, r io.Reader) {
	data, _ := io.ReadAll(r)
	if len(data) > 0 {
		log.Printf("[encode] %s stderr: %s", name, strings.TrimSpace(string(data)))
	}
}
