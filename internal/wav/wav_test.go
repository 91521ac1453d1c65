package wav

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"testing"

	"sona/internal/sound"
)

func TestClampSample(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int32
	}{
		{"zero", 0, 0},
		{"full scale", 1, math.MaxInt32},
		{"negative full scale", -1, -math.MaxInt32},
		{"over range clamps high", 2, math.MaxInt32},
		{"under range clamps low", -2, -math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampSample(tt.in); got != tt.want {
				t.Errorf("clampSample(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteHeaderFields(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	const n = int64(100)
	const sampleRate = 44100.0
	if err := writeHeader(w, n, sampleRate); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	data := buf.Bytes()
	if len(data) != 44 {
		t.Fatalf("header length = %d, want 44", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		t.Errorf("chunk ID = %q, want RIFF", data[0:4])
	}
	if string(data[8:12]) != "WAVE" {
		t.Errorf("format = %q, want WAVE", data[8:12])
	}
	if string(data[12:16]) != "fmt " {
		t.Errorf("subchunk1 ID = %q, want 'fmt '", data[12:16])
	}
	if string(data[36:40]) != "data" {
		t.Errorf("subchunk2 ID = %q, want data", data[36:40])
	}

	channelsGot := binary.LittleEndian.Uint16(data[22:24])
	if channelsGot != 1 {
		t.Errorf("channels = %d, want 1 (mono)", channelsGot)
	}
	rateGot := binary.LittleEndian.Uint32(data[24:28])
	if rateGot != sampleRate {
		t.Errorf("sample rate = %d, want %d", rateGot, uint32(sampleRate))
	}
	bitsGot := binary.LittleEndian.Uint16(data[34:36])
	if bitsGot != 32 {
		t.Errorf("bits per sample = %d, want 32", bitsGot)
	}
	dataSizeGot := binary.LittleEndian.Uint32(data[40:44])
	wantDataSize := uint32(n * 4)
	if dataSizeGot != wantDataSize {
		t.Errorf("data size = %d, want %d", dataSizeGot, wantDataSize)
	}
	riffSizeGot := binary.LittleEndian.Uint32(data[4:8])
	if riffSizeGot != 36+wantDataSize {
		t.Errorf("riff size = %d, want %d", riffSizeGot, 36+wantDataSize)
	}
}

// TestRenderWritesExpectedSampleCount checks that duration*sampleRate is
// rounded down to a whole sample count, and that the samples written
// match the generator's own At values.
func TestRenderWritesExpectedSampleCount(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)
	w := New(dir, logger)

	sig := sound.Const{V: 0.5}
	if err := w.Render("tone", 0.001, 44100, sig); err != nil {
		t.Fatalf("Render: %v", err)
	}

	path := filepath.Join(dir, "tone.wav")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open rendered file: %v", err)
	}
	defer f.Close()

	header := make([]byte, 44)
	if _, err := io.ReadFull(f, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	dataSize := binary.LittleEndian.Uint32(header[40:44])

	wantSamples := int64(math.Floor(0.001 * 44100))
	wantDataSize := uint32(wantSamples * 4)
	if dataSize != wantDataSize {
		t.Fatalf("data size = %d, want %d (%d samples)", dataSize, wantDataSize, wantSamples)
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if int64(len(rest)) != wantSamples*4 {
		t.Fatalf("sample bytes = %d, want %d", len(rest), wantSamples*4)
	}
	for i := int64(0); i < wantSamples; i++ {
		raw := binary.LittleEndian.Uint32(rest[i*4 : i*4+4])
		got := int32(raw)
		want := clampSample(0.5)
		if got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

// TestRenderAppendsWavExtension checks a name without an extension gets
// ".wav" appended, while one that already ends in ".wav" is untouched.
func TestRenderAppendsWavExtension(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, log.New(io.Discard, "", 0))

	if err := w.Render("noext", 0, 44100, sound.Silence); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "noext.wav")); err != nil {
		t.Errorf("expected noext.wav to exist: %v", err)
	}

	if err := w.Render("already.wav", 0, 44100, sound.Silence); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "already.wav")); err != nil {
		t.Errorf("expected already.wav to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "already.wav.wav")); err == nil {
		t.Errorf("expected no double extension, found already.wav.wav")
	}
}

func TestRenderZeroDurationProducesHeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, log.New(io.Discard, "", 0))
	if err := w.Render("empty", 0, 44100, sound.Silence); err != nil {
		t.Fatalf("Render: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "empty.wav"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 44 {
		t.Errorf("file size = %d, want 44 (header only)", info.Size())
	}
}
