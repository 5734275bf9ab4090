package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Expected clip format for everything exchanged with the speech services
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16

	formatPCM = 1
)

// ErrEmptyClip is returned when a clip file has no bytes
var ErrEmptyClip = errors.New("audio clip is empty")

// Format describes the fmt chunk of a WAV file
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataBytes     uint32
}

// IsExpected reports whether the format is 16-bit mono 16 kHz linear PCM
func (f Format) IsExpected() bool {
	return f.AudioFormat == formatPCM &&
		f.Channels == Channels &&
		f.SampleRate == SampleRate &&
		f.BitsPerSample == BitsPerSample
}

// Duration of the PCM payload
func (f Format) Duration() time.Duration {
	bytesPerSecond := int64(f.SampleRate) * int64(f.Channels) * int64(f.BitsPerSample/8)
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(int64(f.DataBytes) * int64(time.Second) / bytesPerSecond)
}

func (f Format) String() string {
	return fmt.Sprintf("format=%d channels=%d rate=%dHz bits=%d", f.AudioFormat, f.Channels, f.SampleRate, f.BitsPerSample)
}

// Clip is a WAV-encoded audio file held in memory together with where it lives on disk
type Clip struct {
	Path string
	Data []byte
}

// NewClip wraps raw WAV bytes
func NewClip(path string, data []byte) *Clip {
	return &Clip{Path: path, Data: data}
}

// Load reads a clip from disk
func Load(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio clip: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyClip)
	}
	return &Clip{Path: path, Data: data}, nil
}

// Save writes the clip to path, replacing any previous file, and records the new location
func (c *Clip) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create clip directory: %w", err)
		}
	}
	if err := os.WriteFile(path, c.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write audio clip: %w", err)
	}
	c.Path = path
	return nil
}

// Base64 returns the standard base64 encoding used in JSON request bodies
func (c *Clip) Base64() string {
	return base64.StdEncoding.EncodeToString(c.Data)
}

// Format parses the WAV header of the clip
func (c *Clip) Format() (Format, error) {
	return ParseHeader(c.Data)
}

// ParseHeader walks the RIFF chunks and returns the fmt description.
// Chunks other than fmt and data (LIST, fact, ...) are skipped.
func ParseHeader(data []byte) (Format, error) {
	if len(data) < 12 {
		return Format{}, fmt.Errorf("wav header too short (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Format{}, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		f       Format
		haveFmt bool
	)
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return Format{}, fmt.Errorf("truncated fmt chunk")
			}
			f.AudioFormat = binary.LittleEndian.Uint16(data[body:])
			f.Channels = binary.LittleEndian.Uint16(data[body+2:])
			f.SampleRate = binary.LittleEndian.Uint32(data[body+4:])
			f.BitsPerSample = binary.LittleEndian.Uint16(data[body+14:])
			haveFmt = true
		case "data":
			if !haveFmt {
				return Format{}, fmt.Errorf("data chunk before fmt chunk")
			}
			f.DataBytes = size
			return f, nil
		}

		// Chunks are word aligned
		next := body + int(size)
		if size%2 == 1 {
			next++
		}
		if next <= offset {
			break
		}
		offset = next
	}

	if !haveFmt {
		return Format{}, fmt.Errorf("missing fmt chunk")
	}
	return f, nil
}

// EncodePCM16 wraps little-endian 16-bit samples in a canonical 44-byte WAV header
// at the expected rate and channel count.
func EncodePCM16(samples []int16) []byte {
	dataBytes := len(samples) * 2
	out := make([]byte, 44+dataBytes)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataBytes))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], Channels)
	binary.LittleEndian.PutUint32(out[24:28], SampleRate)
	binary.LittleEndian.PutUint32(out[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(out[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(out[34:36], BitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataBytes))

	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(sample))
	}
	return out
}
