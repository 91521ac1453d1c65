// Package wav implements the env.Renderer that backs write(): a mono
// 32-bit signed PCM RIFF/WAVE encoder. It samples a sound.Value's
// Iterator at a fixed rate for a fixed duration and streams each sample
// straight to disk, so a render's memory footprint never depends on
// duration.
package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"sona/internal/sound"
)

const (
	bitsPerSample = 32
	channels      = 1
	maxAmplitude  = math.MaxInt32 // 2^31 - 1
)

// Writer renders sound graphs to WAV files in a target directory.
type Writer struct {
	Dir    string
	Logger *log.Logger
}

// New builds a Writer that renders into dir ("" meaning the current
// working directory).
func New(dir string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	return &Writer{Dir: dir, Logger: logger}
}

// Render implements env.Renderer: it samples sig at sampleRate for
// duration seconds and writes the result as name.wav under w.Dir.
func (w *Writer) Render(name string, duration, sampleRate float64, sig sound.Value) error {
	renderID := uuid.NewString()
	path := name
	if w.Dir != "" {
		path = w.Dir + string(os.PathSeparator) + name
	}
	if len(path) < 4 || path[len(path)-4:] != ".wav" {
		path += ".wav"
	}

	n := int64(math.Floor(duration * sampleRate))
	if n < 0 {
		n = 0
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "render %s: create file", renderID)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if err := writeHeader(buf, n, sampleRate); err != nil {
		return errors.Wrapf(err, "render %s: write header", renderID)
	}

	it := sig.Iterator(sampleRate)
	var sample [4]byte
	for i := int64(0); i < n; i++ {
		v := it.Next()
		s := clampSample(v)
		binary.LittleEndian.PutUint32(sample[:], uint32(int32(s)))
		if _, err := buf.Write(sample[:]); err != nil {
			return errors.Wrapf(err, "render %s: write sample %d", renderID, i)
		}
	}
	if err := buf.Flush(); err != nil {
		return errors.Wrapf(err, "render %s: flush", renderID)
	}

	w.Logger.Printf("wrote %s (%s, %s samples, render %s)",
		path, humanize.Bytes(uint64(44+n*4)), humanize.Comma(n), renderID)
	return nil
}

// clampSample maps a [-1, 1]-ish signal sample to a full-range int32,
// truncating toward zero and clamping out-of-range input rather than
// wrapping it.
func clampSample(v float64) int32 {
	scaled := v * maxAmplitude
	switch {
	case scaled >= maxAmplitude:
		return maxAmplitude
	case scaled <= -maxAmplitude:
		return -maxAmplitude
	default:
		return int32(math.Trunc(scaled))
	}
}

// writeHeader emits the 44-byte canonical RIFF/WAVE header for n mono
// samples at the given sample rate.
func writeHeader(w *bufio.Writer, n int64, sampleRate float64) error {
	dataSize := uint32(n * (bitsPerSample / 8))
	byteRate := uint32(sampleRate) * channels * (bitsPerSample / 8)
	blockAlign := uint16(channels * (bitsPerSample / 8))

	fields := []struct {
		v    interface{}
		name string
	}{
		{[4]byte{'R', 'I', 'F', 'F'}, "RIFF"},
		{uint32(36 + dataSize), "riff size"},
		{[4]byte{'W', 'A', 'V', 'E'}, "WAVE"},
		{[4]byte{'f', 'm', 't', ' '}, "fmt "},
		{uint32(16), "fmt size"},
		{uint16(1), "pcm format"},
		{uint16(channels), "channels"},
		{uint32(sampleRate), "sample rate"},
		{byteRate, "byte rate"},
		{blockAlign, "block align"},
		{uint16(bitsPerSample), "bits per sample"},
		{[4]byte{'d', 'a', 't', 'a'}, "data"},
		{dataSize, "data size"},
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f.v); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}
