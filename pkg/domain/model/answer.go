package model

// Fragment is one increment of a streamed answer. A Fragment with a non-nil
// Err signals that generation was interrupted after streaming began.
type Fragment struct {
	Text string
	Err  error
}

// Answer is the result of composing a response: either a literal text or a
// finite stream of fragments terminated by channel close. Exactly one of the
// two variants is populated.
type Answer struct {
	literal string
	stream  <-chan Fragment
}

// NewLiteralAnswer returns an Answer holding a single complete text.
func NewLiteralAnswer(text string) *Answer {
	return &Answer{literal: text}
}

// NewStreamingAnswer returns an Answer backed by a fragment stream. The
// producer must close the channel when generation completes.
func NewStreamingAnswer(stream <-chan Fragment) *Answer {
	return &Answer{stream: stream}
}

// IsStreaming reports which variant this Answer holds.
func (a *Answer) IsStreaming() bool {
	return a.stream != nil
}

// Literal returns the complete text of a literal answer.
func (a *Answer) Literal() string {
	return a.literal
}

// Stream returns the fragment channel of a streaming answer.
func (a *Answer) Stream() <-chan Fragment {
	return a.stream
}
