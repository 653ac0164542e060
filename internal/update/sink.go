package update

import (
	"github.com/sandeepkv93/taskstracker/internal/manager"
	"github.com/sandeepkv93/taskstracker/internal/model"
)

// Sink collects manager side effects while a job or key handler runs so the
// model can pick them up on the same goroutine. It never calls into the
// running program.
type Sink struct {
	dirty    bool
	messages []Message
	loads    []LoadResult
	expired  []uint64
}

type Message struct {
	Text  string
	Color manager.MessageColor
}

type LoadResult struct {
	Category model.Category
	Err      error
}

type sinkEvents struct {
	dirty    bool
	messages []Message
	loads    []LoadResult
	expired  []uint64
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Refresh(*model.Task) {
	s.dirty = true
}

func (s *Sink) SendMessage(text string, color manager.MessageColor) {
	s.messages = append(s.messages, Message{Text: text, Color: color})
}

func (s *Sink) loadFinished(category model.Category, err error) {
	s.loads = append(s.loads, LoadResult{Category: category, Err: err})
}

func (s *Sink) expireStatus(seq uint64) {
	s.expired = append(s.expired, seq)
}

func (s *Sink) drain() sinkEvents {
	out := sinkEvents{dirty: s.dirty, messages: s.messages, loads: s.loads, expired: s.expired}
	s.dirty = false
	s.messages = nil
	s.loads = nil
	s.expired = nil
	return out
}
