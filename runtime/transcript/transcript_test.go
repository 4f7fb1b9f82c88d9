package transcript

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_MergesSameRole(t *testing.T) {
	a := New()
	a.Append(RoleUser, "Hello ")
	a.Append(RoleUser, "there.")
	a.Append(RoleModel, "Hi!")
	a.Append(RoleUser, "How am I doing?")

	entries := a.Snapshot()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Role: RoleUser, Text: "Hello there."}, entries[0])
	assert.Equal(t, Entry{Role: RoleModel, Text: "Hi!"}, entries[1])
	assert.Equal(t, Entry{Role: RoleUser, Text: "How am I doing?"}, entries[2])
}

func TestAccumulator_IgnoresEmptyDeltas(t *testing.T) {
	a := New()
	a.Append(RoleUser, "")
	assert.Zero(t, a.Len())

	a.Append(RoleUser, "a")
	a.Append(RoleModel, "")
	a.Append(RoleUser, "b")
	assert.Equal(t, []Entry{{Role: RoleUser, Text: "ab"}}, a.Snapshot())
}

func TestAccumulator_SnapshotIsACopy(t *testing.T) {
	a := New()
	a.Append(RoleModel, "one")
	snap := a.Snapshot()
	snap[0].Text = "changed"
	a.Append(RoleModel, " two")

	assert.Equal(t, "one two", a.Snapshot()[0].Text)
	assert.Equal(t, "changed", snap[0].Text)
}

func TestAccumulator_Reset(t *testing.T) {
	a := New()
	a.Append(RoleUser, "x")
	a.Reset()
	assert.Zero(t, a.Len())
	assert.Empty(t, a.Snapshot())
	assert.Equal(t, "", a.Format())
}

func TestFormat(t *testing.T) {
	got := Format([]Entry{
		{Role: RoleUser, Text: " I think the plan is good. "},
		{Role: RoleModel, Text: "Slow down a little."},
	})
	assert.Equal(t, "User: I think the plan is good.\nCoach: Slow down a little.", got)
}

func TestAccumulator_ConcurrentAppends(t *testing.T) {
	a := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Append(RoleUser, fmt.Sprintf("%d", i%10))
			}
		}(i)
	}
	wg.Wait()

	entries := a.Snapshot()
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Text, 1000)
}
