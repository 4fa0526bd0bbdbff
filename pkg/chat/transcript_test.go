package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptAppendOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserMessage("first"))
	tr.Append(NewSystemMessage(KindText, "second"))

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "first", snap[0].Text)
	assert.Equal(t, "second", snap[1].Text)
}

func TestTranscriptMutateByJobID(t *testing.T) {
	tr := NewTranscript()
	msg := NewSystemMessage(KindProgressUpdate, "working")
	msg.JobID = "J1"
	tr.Append(msg)

	found := tr.MutateByJobID("J1", func(m *Message) {
		m.Text = "halfway"
	})
	assert.True(t, found)
	assert.Equal(t, "halfway", tr.Snapshot()[0].Text)

	assert.False(t, tr.MutateByJobID("missing", func(m *Message) {
		t.Fatal("should not be called")
	}))
	assert.False(t, tr.MutateByJobID("", func(m *Message) {
		t.Fatal("should not be called")
	}))
}

func TestTranscriptSnapshotIsolation(t *testing.T) {
	tr := NewTranscript()
	msg := NewSystemMessage(KindProgressUpdate, "working")
	msg.JobID = "J1"
	p := 10
	msg.ProgressPercent = &p
	tr.Append(msg)

	snap := tr.Snapshot()
	snap[0].Text = "tampered"
	*snap[0].ProgressPercent = 99

	fresh := tr.Snapshot()
	assert.Equal(t, "working", fresh[0].Text)
	assert.Equal(t, 10, *fresh[0].ProgressPercent)
}

func TestTranscriptClear(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserMessage("hello"))
	tr.Clear()
	assert.Zero(t, tr.Len())
	assert.Empty(t, tr.Snapshot())
}
