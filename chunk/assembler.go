package chunk

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"

	"github.com/Dr-42/nexus-flix/encode"
	"github.com/Dr-42/nexus-flix/models"
	"github.com/Dr-42/nexus-flix/probe"
)

// Assembler turns a ChunkRequest into a framed envelope by probing the
// source and fanning its track encoders out concurrently (spec.md §4.3).
type Assembler struct {
	prober  *probe.Prober
	runner  *encode.Runner
	maxProc *semaphore.Weighted
}

// defaultMaxConcurrentEncoders bounds how many ffmpeg processes may run at
// once across the whole server, independent of how many chunk requests are
// in flight; each process is expensive (hardware decode/encode context), so
// an unbounded fan-out risks exhausting the GPU or file descriptors.
const defaultMaxConcurrentEncoders = 8

// NewAssembler builds an Assembler around prober and runner.
func NewAssembler(prober *probe.Prober, runner *encode.Runner) *Assembler {
	return &Assembler{
		prober:  prober,
		runner:  runner,
		maxProc: semaphore.NewWeighted(defaultMaxConcurrentEncoders),
	}
}

// Assemble probes req.Path, then encodes every probed track concurrently —
// one video encoder, one per audio track, one per eligible subtitle track —
// preserving probe order per kind (spec.md §4.3, §5 ordering guarantees).
func (a *Assembler) Assemble(ctx context.Context, req models.ChunkRequest) (models.ChunkResponse, error) {
	meta, err := a.prober.Probe(ctx, req.Path)
	if err != nil {
		return models.ChunkResponse{}, fmt.Errorf("probe: %w", err)
	}

	var audioTracks, subtitleTracks []models.Track
	for _, tr := range meta.Tracks {
		switch tr.Kind {
		case models.TrackKindAudio:
			audioTracks = append(audioTracks, tr)
		case models.TrackKindSubtitle:
			if !meta.IsUnavailableSub(tr.ID) {
				subtitleTracks = append(subtitleTracks, tr)
			}
		}
	}

	var resp models.ChunkResponse
	resp.AudioData = make([]models.AudioChunk, len(audioTracks))
	resp.SubtitleData = make([]models.SubtitleChunk, len(subtitleTracks))
	for i, tr := range audioTracks {
		resp.AudioData[i] = models.AudioChunk{ID: tr.ID}
	}
	for i, tr := range subtitleTracks {
		resp.SubtitleData[i] = models.SubtitleChunk{ID: tr.ID}
	}

	p := pool.New().WithContext(ctx)

	for _, tr := range meta.Tracks {
		tr := tr
		if tr.Kind == models.TrackKindVideo {
			p.Go(func(ctx context.Context) error {
				data, err := a.encodeVideo(ctx, req, tr)
				if err != nil {
					return err
				}
				resp.VideoData = data
				return nil
			})
		}
	}
	for slot, tr := range audioTracks {
		slot, tr := slot, tr
		p.Go(func(ctx context.Context) error {
			data, err := a.encodeAudio(ctx, req, tr)
			if err != nil {
				return err
			}
			resp.AudioData[slot] = models.AudioChunk{ID: tr.ID, Bytes: data}
			return nil
		})
	}
	for slot, tr := range subtitleTracks {
		slot, tr := slot, tr
		p.Go(func(ctx context.Context) error {
			text, err := a.encodeSubtitle(ctx, req, tr)
			if err != nil {
				return err
			}
			resp.SubtitleData[slot] = models.SubtitleChunk{ID: tr.ID, Text: text}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return models.ChunkResponse{}, fmt.Errorf("encode: %w", err)
	}
	return resp, nil
}

func (a *Assembler) encodeVideo(ctx context.Context, req models.ChunkRequest, _ models.Track) ([]byte, error) {
	if err := a.maxProc.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer a.maxProc.Release(1)
	return a.runner.Video(ctx, req.Path, req.Timestamp, req.Duration)
}

func (a *Assembler) encodeAudio(ctx context.Context, req models.ChunkRequest, tr models.Track) ([]byte, error) {
	if err := a.maxProc.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer a.maxProc.Release(1)
	return a.runner.Audio(ctx, req.Path, tr.ID, req.Timestamp, req.Duration)
}

func (a *Assembler) encodeSubtitle(ctx context.Context, req models.ChunkRequest, tr models.Track) (string, error) {
	source := req.Path
	if tr.External {
		path, err := probe.ExternalSubtitlePath(req.Path, tr)
		if err != nil {
			return "", fmt.Errorf("resolve external subtitle: %w", err)
		}
		source = path
	}

	if err := a.maxProc.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer a.maxProc.Release(1)
	return a.runner.Subtitle(ctx, source, tr.ID, tr.External, req.Timestamp, req.Duration)
}
