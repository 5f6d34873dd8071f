package encode

import (
	"context"
	"strconv"
)

// Audio encodes the window [start, start+duration) of audio track audioID
// from path into fragmented MP4 bytes, downmixed to stereo AAC-LC at
// 128kbit/s (spec.md §6.3 "Audio").
func (r *Runner) Audio(ctx context.Context, path string, audioID int, start, duration float64) ([]byte, error) {
	args := []string{
		"-v", "quiet",
		"-hwaccel", "cuda",
		"-hwaccel_output_format", "cuda",
		"-ss", formatSeconds(start),
		"-i", path,
		"-t", formatSeconds(duration),
		"-map", "0:a:" + strconv.Itoa(audioID),
		"-c:a", "aac",
		"-b:a", "128k",
		"-ac", "2",
		"-force_key_frames", forceKeyframeExpr(),
		"-movflags", "frag_keyframe+empty_moov+faststart+default_base_moof",
		"-vn",
		"-f", "mp4",
		"pipe:1",
	}
	return run(ctx, r.FFmpegPath, args)
}
