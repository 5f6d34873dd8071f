package encode

import (
	"context"
	"strconv"
)

// Video encodes the window [start, start+duration) of path into fragmented
// MP4 bytes containing only the video track, hardware-accelerated H.264
// with a forced keyframe every keyframeIntervalSeconds so the chunk always
// opens on one (spec.md §6.3 "Video").
func (r *Runner) Video(ctx context.Context, path string, start, duration float64) ([]byte, error) {
	args := []string{
		"-v", "quiet",
		"-hwaccel", "cuda",
		"-hwaccel_output_format", "cuda",
		"-ss", formatSeconds(start),
		"-i", path,
		"-t", formatSeconds(duration),
		"-c:v", "h264_nvenc",
		"-vf", "scale_cuda=format=yuv420p",
		"-force_key_frames", forceKeyframeExpr(),
		"-movflags", "frag_keyframe+empty_moov+faststart+default_base_moof",
		"-an",
		"-f", "mp4",
		"pipe:1",
	}
	return run(ctx, r.FFmpegPath, args)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
