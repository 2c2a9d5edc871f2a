package queue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kproc/model/proc"
)

func TestSet_PushBack(t *testing.T) {
	var testCases = []struct {
		description string
		pushes      [][2]int
		expect      map[int][]int
	}{
		{
			description: "fifo per level",
			pushes:      [][2]int{{0, 3}, {0, 1}, {2, 0}, {0, 2}},
			expect:      map[int][]int{0: {3, 1, 2}, 1: {}, 2: {0}},
		},
		{
			description: "last level",
			pushes:      [][2]int{{4, 5}, {4, 4}},
			expect:      map[int][]int{4: {5, 4}},
		},
	}
	for _, testCase := range testCases {
		set := New(8)
		for _, push := range testCase.pushes {
			require.Nil(t, set.PushBack(push[0], push[1]), testCase.description)
		}
		for level, expect := range testCase.expect {
			assert.Equal(t, expect, set.Members(level), testCase.description)
			assert.Equal(t, len(expect), set.Len(level), testCase.description)
		}
	}
}

func TestSet_Remove(t *testing.T) {
	set := New(6)
	for slot := 0; slot < 5; slot++ {
		require.Nil(t, set.PushBack(1, slot))
	}
	assert.True(t, set.Remove(2))
	assert.Equal(t, []int{0, 1, 3, 4}, set.Members(1))
	assert.True(t, set.Remove(0))
	assert.True(t, set.Remove(4))
	assert.Equal(t, []int{1, 3}, set.Members(1))
	assert.Equal(t, 1, set.Front(1))
	assert.Equal(t, 3, set.Next(1))
	assert.False(t, set.Remove(4))
	assert.Equal(t, proc.LevelNone, set.Level(4))

	require.Nil(t, set.PushBack(0, 4))
	assert.Equal(t, 0, set.Level(4))
	assert.True(t, set.Remove(1))
	assert.True(t, set.Remove(3))
	assert.Equal(t, -1, set.Front(1))
	assert.Equal(t, 0, set.Len(1))
}

func TestSet_Errors(t *testing.T) {
	set := New(2)
	require.Nil(t, set.PushBack(0, 1))
	err := set.PushBack(3, 1)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NotNil(t, set.PushBack(5, 0))
	assert.NotNil(t, set.PushBack(0, 2))
	assert.False(t, set.Contains(0))
	assert.True(t, set.Contains(1))
}
