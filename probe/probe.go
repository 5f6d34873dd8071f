// Package probe inspects a media file with ffprobe and reports its duration
// and track inventory, appending any sibling external-subtitle files it
// finds alongside the source.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/Dr-42/nexus-flix/models"
)

// GraphicSubtitleCodecs lists codec_name substrings that identify a
// bitmap/graphic subtitle stream, which cannot be rendered as WebVTT and
// must be suppressed from chunk encoding (spec.md §3). Kept as a variable,
// not a literal, so a deployment can extend it without touching call sites
// (spec.md §9 open question).
var GraphicSubtitleCodecs = []string{"dvbsub", "dvdsub", "pgs", "xsub"}

// externalSubtitleExtensions lists the sibling-file extensions treated as
// external text subtitles.
var externalSubtitleExtensions = map[string]bool{".srt": true, ".vtt": true}

// Prober inspects media files with ffprobe.
type Prober struct {
	FFprobePath string
}

// New returns a Prober using ffprobePath, or "ffprobe" on PATH if empty.
func New(ffprobePath string) *Prober {
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{FFprobePath: ffprobePath}
}

type ffprobeStream struct {
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Tags      map[string]string `json:"tags"`
	// PixFmt carries the color format for video streams, when reported.
	PixFmt string `json:"pix_fmt"`
}

type ffprobeStreamsDoc struct {
	Streams []ffprobeStream `json:"streams"`
}

// Probe inspects path and returns its duration and track inventory.
// Two ffprobe invocations run: a structured streams query, and a single
// scalar duration query, per spec.md §4.1's algorithm.
func (p *Prober) Probe(ctx context.Context, path string) (models.VideoMetadata, error) {
	streamsDoc, streamsErr := p.probeStreams(ctx, path)
	duration, durationErr := p.probeDuration(ctx, path)

	var combined *multierror.Error
	if streamsErr != nil {
		combined = multierror.Append(combined, fmt.Errorf("probe streams: %w", streamsErr))
	}
	if durationErr != nil {
		combined = multierror.Append(combined, fmt.Errorf("probe duration: %w", durationErr))
	}
	if combined.ErrorOrNil() != nil {
		return models.VideoMetadata{}, combined
	}

	tracks, unavailable := buildTracks(streamsDoc.Streams)
	externalTracks, _ := discoverExternalSubtitles(path, nextSubtitleID(tracks))
	tracks = append(tracks, externalTracks...)

	return models.VideoMetadata{
		Duration:        duration,
		Tracks:          tracks,
		UnavailableSubs: unavailable,
	}, nil
}

func (p *Prober) probeStreams(ctx context.Context, path string) (ffprobeStreamsDoc, error) {
	args := []string{"-v", "quiet", "-print_format", "json", "-show_streams", path}
	cmd := exec.CommandContext(ctx, p.FFprobePath, args...)
	out, err := cmd.Output()
	if err != nil {
		return ffprobeStreamsDoc{}, fmt.Errorf("execute ffprobe: %w", err)
	}
	var doc ffprobeStreamsDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return ffprobeStreamsDoc{}, fmt.Errorf("parse ffprobe streams: %w", err)
	}
	return doc, nil
}

func (p *Prober) probeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-select_streams", "v:0",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := exec.CommandContext(ctx, p.FFprobePath, args...)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("execute ffprobe: %w", err)
	}
	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	duration, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", line, err)
	}
	return duration, nil
}

// buildTracks assigns kind-local ids the way the original implementation
// does: video pinned to 0, audio/subtitle counters starting at -1 and
// pre-incrementing.
func buildTracks(streams []ffprobeStream) ([]models.Track, []int) {
	tracks := make([]models.Track, 0, len(streams))
	var unavailable []int
	audioIdx := -1
	subtitleIdx := -1

	for _, s := range streams {
		var kind models.TrackKind
		var id int
		switch s.CodecType {
		case "video":
			kind = models.TrackKindVideo
			id = 0
		case "audio":
			kind = models.TrackKindAudio
			audioIdx++
			id = audioIdx
		case "subtitle":
			kind = models.TrackKindSubtitle
			subtitleIdx++
			id = subtitleIdx
		default:
			continue
		}

		label := trackLabel(s.Tags, kind, id)

		track := models.Track{ID: id, Kind: kind, Label: label, Codec: s.CodecName}
		if kind == models.TrackKindVideo {
			track.ColorFormat = s.PixFmt
		}
		if kind == models.TrackKindSubtitle && isGraphicSubtitle(s.CodecName) {
			unavailable = append(unavailable, id)
		}
		tracks = append(tracks, track)
	}
	return tracks, unavailable
}

func trackLabel(tags map[string]string, kind models.TrackKind, id int) string {
	if title, ok := tags["title"]; ok && title != "" {
		return title
	}
	if lang, ok := tags["language"]; ok && lang != "" {
		return lang
	}
	return fmt.Sprintf("%s %d", capitalize(string(kind)), id)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isGraphicSubtitle(codecName string) bool {
	lower := strings.ToLower(codecName)
	for _, g := range GraphicSubtitleCodecs {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}

func nextSubtitleID(tracks []models.Track) int {
	next := 0
	for _, t := range tracks {
		if t.Kind == models.TrackKindSubtitle && t.ID+1 > next {
			next = t.ID + 1
		}
	}
	return next
}

// discoverExternalSubtitles scans path's parent directory for sibling .srt
// and .vtt files, appending each as an external subtitle track. An
// unreadable parent directory yields zero external subtitles rather than an
// error (spec.md §4.1 edge cases). os.ReadDir returns entries sorted by
// file name, so external tracks are numbered in file-name order.
func discoverExternalSubtitles(videoPath string, startID int) ([]models.Track, int) {
	dir := filepath.Dir(videoPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("[probe] cannot read %q for external subtitles: %v", dir, err)
		return nil, startID
	}

	var tracks []models.Track
	id := startID
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !externalSubtitleExtensions[ext] {
			continue
		}
		tracks = append(tracks, models.Track{
			ID:       id,
			Kind:     models.TrackKindSubtitle,
			Label:    entry.Name(),
			External: true,
		})
		id++
	}
	return tracks, id
}

// ExternalSubtitlePath returns the sibling-file path the encoder should read
// for an external subtitle track, by joining the file name Probe recorded as
// the track's label onto the video's directory and checking that it exists.
// Probe and encoding therefore agree on how external subtitles are
// located (spec.md §9 open question, resolved as a single discovery
// mechanism).
func ExternalSubtitlePath(videoPath string, track models.Track) (string, error) {
	if !track.External {
		return "", fmt.Errorf("track %d is not external", track.ID)
	}
	dir := filepath.Dir(videoPath)
	candidate := filepath.Join(dir, track.Label)
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("external subtitle %q: %w", candidate, err)
	}
	return candidate, nil
}
