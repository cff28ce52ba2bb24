package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey(7, 3), PairKey(3, 7))
	assert.Equal(t, "3:7", PairKey(7, 3))
}

func TestChatCloneDoesNotShareMembers(t *testing.T) {
	chat := Chat{ID: 1, Members: []int{1, 2, 3}}
	clone := chat.Clone()
	clone.Members[0] = 99

	assert.Equal(t, 1, chat.Members[0])
	assert.True(t, chat.HasMember(3))
	assert.False(t, chat.HasMember(99))
}

func TestIsCreatorOnlyForGroups(t *testing.T) {
	assert.False(t, Chat{CreatorID: 1}.IsCreator(1))
	assert.True(t, Chat{IsGroup: true, CreatorID: 1}.IsCreator(1))
}

func TestAttachmentsScan(t *testing.T) {
	var a Attachments
	require.NoError(t, a.Scan([]byte(`[{"storage_id":"x","url":"u","file_type":"png","file_type_label":"image"}]`)))
	require.Len(t, a, 1)
	assert.Equal(t, []string{"x"}, a.StorageIDs())

	require.NoError(t, a.Scan(nil))
	assert.Empty(t, a)

	v, err := Attachments(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}
