// Package mic captures audio from the default input device via PortAudio.
package mic

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/hanyuwei/petbabel/server/capture"
)

const (
	sampleRate = 16000
	frameSize  = 1024 // 64ms per frame
)

// Microphone implements the capture Device over the default PortAudio input.
// Levels are RMS amplitude scaled to 0-255 so the default trigger threshold
// behaves the same as the companion app's meter.
type Microphone struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []float32
	opened bool
}

var _ capture.Device = (*Microphone)(nil)

func New() *Microphone {
	return &Microphone{}
}

func (m *Microphone) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opened {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	m.buf = make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(m.buf), m.buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = stream
	m.opened = true
	return nil
}

// Level reads one frame and returns its scaled RMS amplitude.
func (m *Microphone) Level() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return 0, fmt.Errorf("microphone is not open")
	}
	if err := m.stream.Read(); err != nil {
		return 0, fmt.Errorf("failed to read input frame: %w", err)
	}
	return frameRMS(m.buf) * 255, nil
}

// Record captures d worth of audio and returns it as 16-bit PCM WAV.
func (m *Microphone) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return nil, fmt.Errorf("microphone is not open")
	}

	frames := int(d.Seconds()*sampleRate) / frameSize
	if frames < 1 {
		frames = 1
	}
	samples := make([]float32, 0, frames*frameSize)

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("failed to read input frame: %w", err)
		}
		samples = append(samples, m.buf...)
	}

	return encodeWAV(samples), nil
}

func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return nil
	}
	m.stream.Stop()
	m.stream.Close()
	portaudio.Terminate()
	m.stream = nil
	m.opened = false
	return nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}

// encodeWAV wraps float32 samples as a mono 16-bit PCM WAV file.
func encodeWAV(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*math.MaxInt16)))
	}

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&b, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&b, binary.LittleEndian, uint16(16))           // bits per sample
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}
