package encode

import (
	"context"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Subtitle encodes the window [start, start+duration) into a WebVTT text
// stream whose cue timestamps are offset to align with the chunk's absolute
// timeline (spec.md §6.3 "Subtitle").
//
// source is the file ffmpeg reads from: the sibling subtitle file for an
// external track, or the video file for an embedded one. Callers resolve
// that path (probe.ExternalSubtitlePath for external tracks) before calling;
// this function only decides whether a stream map is needed.
func (r *Runner) Subtitle(ctx context.Context, source string, subtitleID int, external bool, start, duration float64) (string, error) {
	args := []string{
		"-v", "quiet",
		"-ss", formatSeconds(start),
		"-i", source,
	}
	if !external {
		args = append(args, "-map", "0:s:"+strconv.Itoa(subtitleID))
	}
	args = append(args,
		"-output_ts_offset", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-f", "webvtt",
		"pipe:1",
	)

	raw, err := run(ctx, r.FFmpegPath, args)
	if err != nil {
		return "", err
	}
	return decodeLossyUTF8(raw), nil
}

// decodeLossyUTF8 sanitizes raw bytes as UTF-8, substituting the Unicode
// replacement character for any invalid sequence rather than failing, since
// ffmpeg's webvtt muxer output is not guaranteed valid UTF-8 when the source
// subtitle used a different encoding.
func decodeLossyUTF8(raw []byte) string {
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
