package chat

// Transcript is the append-only ordered log of conversation messages.
// It is not safe for concurrent use on its own; the owning Session
// serializes all access.
type Transcript struct {
	messages []*Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a message to the end of the log.
func (t *Transcript) Append(m *Message) {
	t.messages = append(t.messages, m)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// MutateByJobID applies fn to the most recent message correlated with
// jobID and reports whether one was found. Jobs keep a single live entry,
// so scanning from the end finds it first.
func (t *Transcript) MutateByJobID(jobID string, fn func(*Message)) bool {
	if jobID == "" {
		return false
	}
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].JobID == jobID {
			fn(t.messages[i])
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of the log for the presentation layer.
func (t *Transcript) Snapshot() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.Clone()
	}
	return out
}

// Clear removes all messages.
func (t *Transcript) Clear() {
	t.messages = nil
}
