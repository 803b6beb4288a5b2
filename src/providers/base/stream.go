package base

import (
	"io"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
)

// Chunk is one printable output item. Label says what the item is
// ("output", "message", "candidate", ...).
type Chunk struct {
	Label string
	Data  json.RawMessage
}

// Stream is a lazy sequence of chunks in emission order. Next returns
// io.EOF when the sequence is exhausted.
type Stream interface {
	Next() (Chunk, error)
	Close() error
}

// SliceStream serves chunks that are already in memory. A provider that
// returns a single object is a one-element SliceStream.
type SliceStream struct {
	items   []Chunk
	index   int
	closeFn func() error
}

// NewSliceStream wraps items. closeFn may be nil.
func NewSliceStream(items []Chunk, closeFn func() error) *SliceStream {
	return &SliceStream{items: items, closeFn: closeFn}
}

func (s *SliceStream) Next() (Chunk, error) {
	if s.index >= len(s.items) {
		return Chunk{}, io.EOF
	}
	item := s.items[s.index]
	s.index++
	return item, nil
}

func (s *SliceStream) Close() error {
	if s.closeFn != nil {
		fn := s.closeFn
		s.closeFn = nil
		return fn()
	}
	return nil
}

// Collect drains a stream and closes it.
func Collect(s Stream) ([]Chunk, error) {
	defer s.Close()
	var out []Chunk
	for {
		c, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}
