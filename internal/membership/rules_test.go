package membership

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/models"
)

func group(creator int, members ...int) models.Chat {
	return models.Chat{ID: 1, IsGroup: true, Name: "g", CreatorID: creator, Members: members}
}

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestApplyAdd(t *testing.T) {
	chat := group(1, 1, 2, 3)

	next, added, err := applyAdd(chat, 1, []int{3, 4, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, added)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, next.Members)
	assert.Equal(t, []int{1, 2, 3}, chat.Members, "input must not change")

	next, added, err = applyAdd(chat, 1, []int{2, 3})
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Len(t, next.Members, 3)
}

func TestApplyAddErrors(t *testing.T) {
	_, _, err := applyAdd(group(1, 1, 2, 3), 2, []int{4})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, _, err = applyAdd(models.Chat{Members: []int{1, 2}}, 1, []int{4})
	assert.True(t, errors.Is(err, apperr.ErrNotGroupChat))

	full := group(1, seq(1, 99)...)
	next, _, err := applyAdd(full, 1, []int{500})
	require.NoError(t, err)
	assert.Len(t, next.Members, 100)

	_, _, err = applyAdd(next, 1, []int{501})
	assert.True(t, errors.Is(err, apperr.ErrLimitExceeded))

	_, _, err = applyAdd(full, 1, []int{500, 501})
	assert.True(t, errors.Is(err, apperr.ErrLimitExceeded))
}

func TestApplyRemove(t *testing.T) {
	_, err := applyRemove(group(1, 1, 2, 3), 1, 3)
	assert.True(t, errors.Is(err, apperr.ErrTooFewMembers))

	next, err := applyRemove(group(1, 1, 2, 3, 4), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, next.Members)

	_, err = applyRemove(group(1, 1, 2, 3, 4), 2, 4)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = applyRemove(models.Chat{Members: []int{1, 2}}, 1, 2)
	assert.True(t, errors.Is(err, apperr.ErrNotGroupChat))

	_, err = applyRemove(group(1, 1, 2, 3, 4), 1, 9)
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation))

	_, err = applyRemove(group(1, 1, 2, 3, 4), 1, 1)
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation))
}

func TestApplyLeaveByCreatorReassigns(t *testing.T) {
	chat := group(1, 1, 2, 3, 4)
	for i := 0; i < 3; i++ {
		pick := func(n int) int {
			require.Equal(t, 3, n)
			return i
		}
		next, err := applyLeave(chat, 1, pick)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 4}, next.Members)
		assert.Contains(t, next.Members, next.CreatorID)
		assert.NotEqual(t, 1, next.CreatorID)
	}
}

func TestApplyLeave(t *testing.T) {
	never := func(int) int { t.Error("pick called"); return 0 }

	next, err := applyLeave(group(1, 1, 2, 3, 4), 2, never)
	require.NoError(t, err)
	assert.Equal(t, 1, next.CreatorID)
	assert.Equal(t, []int{1, 3, 4}, next.Members)

	_, err = applyLeave(group(1, 1, 2, 3), 2, never)
	assert.True(t, errors.Is(err, apperr.ErrTooFewMembers))

	_, err = applyLeave(group(1, 1, 2, 3, 4), 9, never)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = applyLeave(models.Chat{Members: []int{1, 2}}, 1, never)
	assert.True(t, errors.Is(err, apperr.ErrNotGroupChat))
}

func TestApplyRename(t *testing.T) {
	next, err := applyRename(group(1, 1, 2, 3), 1, "  new  ")
	require.NoError(t, err)
	assert.Equal(t, "new", next.Name)

	_, err = applyRename(group(1, 1, 2, 3), 2, "x")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = applyRename(models.Chat{Members: []int{1, 2}}, 1, "x")
	assert.True(t, errors.Is(err, apperr.ErrNotGroupChat))

	_, err = applyRename(group(1, 1, 2, 3), 1, " ")
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation))
}

func TestCheckDelete(t *testing.T) {
	assert.NoError(t, checkDelete(group(1, 1, 2, 3), 1))
	assert.True(t, errors.Is(checkDelete(group(1, 1, 2, 3), 2), apperr.ErrForbidden))

	private := models.Chat{Members: []int{1, 2}}
	assert.NoError(t, checkDelete(private, 2))
	assert.True(t, errors.Is(checkDelete(private, 3), apperr.ErrForbidden))
}
