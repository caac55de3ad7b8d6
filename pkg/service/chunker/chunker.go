package chunker

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/model"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 150
)

// Splitter cuts transcript text into overlapping chunks along semantic
// boundaries. Splitting is deterministic: identical input and parameters
// always yield an identical chunk sequence.
type Splitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, goerr.New("chunk size must be positive", goerr.V("chunkSize", chunkSize))
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, goerr.New("overlap must be in [0, chunkSize)",
			goerr.V("chunkSize", chunkSize),
			goerr.V("overlap", overlap),
		)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split cuts the transcript into chunks carrying the document's metadata and
// an incrementing ordinal matching transcript order.
func (s *Splitter) Split(doc *model.TranscriptDocument) []*model.Chunk {
	spans := s.splitText(doc.Text)

	now := time.Now().UTC()
	chunks := make([]*model.Chunk, len(spans))
	for i, sp := range spans {
		chunks[i] = &model.Chunk{
			ID:        model.ChunkIDFor(doc.VideoID, i),
			VideoID:   doc.VideoID,
			Source:    doc.Source,
			Ordinal:   i,
			Start:     sp.start,
			Text:      sp.text,
			CreatedAt: now,
		}
	}
	return chunks
}

type span struct {
	start int // rune offset into the transcript
	text  string
}

// splitText walks the text producing pieces of at most chunkSize runes.
// Each cut prefers, in priority order, a paragraph break, a line break, a
// sentence end, a space, and finally a bare rune boundary. Adjacent pieces
// overlap by up to s.overlap runes.
func (s *Splitter) splitText(text string) []span {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var spans []span
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			spans = append(spans, span{start: start, text: string(runes[start:])})
			break
		}

		end = cutPoint(runes, start, end)
		spans = append(spans, span{start: start, text: string(runes[start:end])})

		next := end - s.overlap
		if next <= start {
			// The cut landed too close to the chunk start; give up the
			// overlap for this boundary to guarantee forward progress.
			next = end
		}
		start = next
	}

	return spans
}

// cutPoint picks the best boundary in (start, limit] scanning backwards for
// each separator class in priority order.
func cutPoint(runes []rune, start, limit int) int {
	// Paragraph break: cut after the blank line
	for i := limit; i >= start+2; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	// Line break
	for i := limit; i >= start+1; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	// Sentence end
	for i := limit; i >= start+1; i-- {
		if isSentenceEnd(runes, i) {
			return i
		}
	}
	// Word boundary
	for i := limit; i >= start+1; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	// Bare rune boundary as last resort
	return limit
}

func isSentenceEnd(runes []rune, i int) bool {
	c := runes[i-1]
	if c != '.' && c != '!' && c != '?' {
		return false
	}
	// Only treat punctuation as a sentence end when followed by whitespace,
	// so "3.14" or "e.g." mid-token do not become boundaries.
	return i >= len(runes) || runes[i] == ' ' || runes[i] == '\n'
}
