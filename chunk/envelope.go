// Package chunk assembles and frames one windowed slice of a media file —
// video, every audio track, every eligible subtitle track — into the binary
// envelope the player's MediaSource extension consumes (spec.md §6.2).
package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Dr-42/nexus-flix/models"
)

// Encode serializes resp as the little-endian binary envelope:
//
//	u32  audio_track_count
//	u32  subtitle_track_count
//	u64  video_data_length
//	u8[] video_data
//	repeat audio_track_count:  u64 id, u64 length, u8[] data
//	repeat subtitle_track_count: u64 id, u64 length, u8[] data (UTF-8 WebVTT)
func Encode(resp models.ChunkResponse) []byte {
	var buf bytes.Buffer
	buf.Grow(12 + len(resp.VideoData) + 16*(len(resp.AudioData)+len(resp.SubtitleData)))

	writeU32(&buf, uint32(len(resp.AudioData)))
	writeU32(&buf, uint32(len(resp.SubtitleData)))
	writeU64(&buf, uint64(len(resp.VideoData)))
	buf.Write(resp.VideoData)

	for _, a := range resp.AudioData {
		writeU64(&buf, uint64(a.ID))
		writeU64(&buf, uint64(len(a.Bytes)))
		buf.Write(a.Bytes)
	}
	for _, s := range resp.SubtitleData {
		text := []byte(s.Text)
		writeU64(&buf, uint64(s.ID))
		writeU64(&buf, uint64(len(text)))
		buf.Write(text)
	}

	return buf.Bytes()
}

// Decode parses an envelope produced by Encode. It is the counterpart a test
// client uses to verify round-trip byte-exactness (spec.md §8 property 5);
// production server code never needs to decode its own output.
func Decode(data []byte) (models.ChunkResponse, error) {
	r := bytes.NewReader(data)

	audioCount, err := readU32(r)
	if err != nil {
		return models.ChunkResponse{}, fmt.Errorf("read audio_track_count: %w", err)
	}
	subtitleCount, err := readU32(r)
	if err != nil {
		return models.ChunkResponse{}, fmt.Errorf("read subtitle_track_count: %w", err)
	}
	videoLen, err := readU64(r)
	if err != nil {
		return models.ChunkResponse{}, fmt.Errorf("read video_data_length: %w", err)
	}
	videoData := make([]byte, videoLen)
	if _, err := io.ReadFull(r, videoData); err != nil {
		return models.ChunkResponse{}, fmt.Errorf("read video_data: %w", err)
	}

	resp := models.ChunkResponse{VideoData: videoData}

	for i := uint32(0); i < audioCount; i++ {
		id, err := readU64(r)
		if err != nil {
			return models.ChunkResponse{}, fmt.Errorf("read audio_id[%d]: %w", i, err)
		}
		length, err := readU64(r)
		if err != nil {
			return models.ChunkResponse{}, fmt.Errorf("read audio_data_length[%d]: %w", i, err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return models.ChunkResponse{}, fmt.Errorf("read audio_data[%d]: %w", i, err)
		}
		resp.AudioData = append(resp.AudioData, models.AudioChunk{ID: int(id), Bytes: data})
	}

	for i := uint32(0); i < subtitleCount; i++ {
		id, err := readU64(r)
		if err != nil {
			return models.ChunkResponse{}, fmt.Errorf("read subtitle_id[%d]: %w", i, err)
		}
		length, err := readU64(r)
		if err != nil {
			return models.ChunkResponse{}, fmt.Errorf("read subtitle_data_length[%d]: %w", i, err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return models.ChunkResponse{}, fmt.Errorf("read subtitle_data[%d]: %w", i, err)
		}
		resp.SubtitleData = append(resp.SubtitleData, models.SubtitleChunk{ID: int(id), Text: string(data)})
	}

	return resp, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
