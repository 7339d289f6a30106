package media

import "github.com/go-audio/audio"

// DefaultChunkMs bounds each recognition request.
const DefaultChunkMs = 60000

// Chunk is one contiguous slice of a source waveform.
type Chunk struct {
	Index      int
	StartMs    int
	DurationMs int
	Buffer     *audio.IntBuffer
}

// Split slices buf into ceil(D/chunkMs) consecutive chunks, D being the
// whole-millisecond length. Chunk i covers [i*chunkMs, min((i+1)*chunkMs, D));
// frames past the last whole millisecond go to the last chunk. Empty input
// yields no chunks, and a source shorter than 1 ms yields one.
func Split(buf *audio.IntBuffer, chunkMs int) []Chunk {
	if chunkMs <= 0 {
		chunkMs = DefaultChunkMs
	}
	frames := frameCount(buf)
	rate := sampleRate(buf)
	if frames == 0 || rate == 0 {
		return nil
	}

	channels := channelCount(buf)
	slice := func(startFrame, endFrame int) *audio.IntBuffer {
		return &audio.IntBuffer{
			Format:         buf.Format,
			SourceBitDepth: buf.SourceBitDepth,
			Data:           buf.Data[startFrame*channels : endFrame*channels],
		}
	}

	totalMs := DurationMs(buf)
	if totalMs == 0 {
		return []Chunk{{Index: 0, Buffer: slice(0, frames)}}
	}

	chunks := make([]Chunk, 0, (totalMs+chunkMs-1)/chunkMs)
	for startMs := 0; startMs < totalMs; startMs += chunkMs {
		endMs := min(startMs+chunkMs, totalMs)
		endFrame := msToFrames(endMs, rate)
		if endMs == totalMs {
			endFrame = frames
		}
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			StartMs:    startMs,
			DurationMs: endMs - startMs,
			Buffer:     slice(msToFrames(startMs, rate), endFrame),
		})
	}
	return chunks
}

func msToFrames(ms, rate int) int {
	return int(int64(ms) * int64(rate) / 1000)
}

func frameCount(buf *audio.IntBuffer) int {
	if buf == nil {
		return 0
	}
	return len(buf.Data) / channelCount(buf)
}

func channelCount(buf *audio.IntBuffer) int {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return 1
	}
	return buf.Format.NumChannels
}

func sampleRate(buf *audio.IntBuffer) int {
	if buf == nil || buf.Format == nil {
		return 0
	}
	return buf.Format.SampleRate
}
