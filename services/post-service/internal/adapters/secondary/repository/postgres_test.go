package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
)

func TestMediaJSON(t *testing.T) {
	media := []domain.Media{
		{ID: "m1", URL: "https://cdn/1.png", Type: domain.MediaTypeImage},
		{ID: "m2", URL: "https://cdn/2.mp4", Type: domain.MediaTypeVideo},
	}
	data, err := marshalMedia(media)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"m1","url":"https://cdn/1.png","type":"image"},{"id":"m2","url":"https://cdn/2.mp4","type":"video"}]`, string(data))
	assert.Equal(t, media, unmarshalMedia(data))

	empty, err := marshalMedia(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty), "never NULL in the media column")
	assert.Empty(t, unmarshalMedia([]byte("garbage")))
}
