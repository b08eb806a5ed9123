package speech

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// wavInfo holds the format metadata needed to derive a clip's duration.
type wavInfo struct {
	SampleRate int
	Channels   int
	BlockAlign int
	DataBytes  int
}

// Duration is the playback length implied by the data chunk.
func (w wavInfo) Duration() time.Duration {
	if w.SampleRate <= 0 || w.BlockAlign <= 0 {
		return 0
	}
	frames := int64(w.DataBytes / w.BlockAlign)
	return time.Duration(frames) * time.Second / time.Duration(w.SampleRate)
}

// wavDuration reads the RIFF header of the file at path and returns its
// playback duration.
func wavDuration(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read wav: %w", err)
	}
	info, err := parseWAV(data)
	if err != nil {
		return 0, err
	}
	return info.Duration(), nil
}

// parseWAV walks the RIFF chunks of wav, reading the "fmt " chunk for the
// sample format and the "data" chunk header for the payload size. A data size
// larger than the bytes actually present (streaming writers leave it at
// 0xFFFFFFFF) is clamped to the remainder of the file.
func parseWAV(wav []byte) (wavInfo, error) {
	if len(wav) < 12 {
		return wavInfo{}, errors.New("wav too short to be a RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return wavInfo{}, errors.New("wav missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return wavInfo{}, errors.New("wav missing WAVE identifier")
	}

	var info wavInfo
	foundFmt := false
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || offset+8+16 > len(wav) {
				return wavInfo{}, errors.New("wav fmt chunk truncated")
			}
			fmtData := wav[offset+8:]
			info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			info.BlockAlign = int(binary.LittleEndian.Uint16(fmtData[12:14]))
			foundFmt = true
		case "data":
			if !foundFmt {
				return wavInfo{}, errors.New("wav data chunk precedes fmt chunk")
			}
			remaining := len(wav) - (offset + 8)
			if chunkSize < 0 || chunkSize > remaining {
				chunkSize = remaining
			}
			info.DataBytes = chunkSize
			if info.SampleRate <= 0 || info.BlockAlign <= 0 {
				return wavInfo{}, fmt.Errorf("wav has invalid format (rate=%d, block_align=%d)", info.SampleRate, info.BlockAlign)
			}
			return info, nil
		}

		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return wavInfo{}, errors.New("wav missing data chunk")
}
