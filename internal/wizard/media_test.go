package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMedia(t *testing.T) {
	media, specs, err := ResolveMedia([]string{"social", "web", "social"}, []string{"facebook-feed", "facebook-feed"})
	require.NoError(t, err)
	assert.Equal(t, []string{"social", "web"}, media)
	require.Len(t, specs, 1)
	assert.Equal(t, 1200, specs[0].Width)
	assert.Equal(t, 628, specs[0].Height)
}

func TestResolveMedia_Errors(t *testing.T) {
	_, _, err := ResolveMedia(nil, nil)
	assert.ErrorIs(t, err, ErrNoMediaSelected)

	_, _, err = ResolveMedia([]string{"billboard"}, nil)
	assert.ErrorIs(t, err, ErrUnknownMedia)

	_, _, err = ResolveMedia([]string{"web"}, []string{"instagram-story"})
	assert.ErrorIs(t, err, ErrUnknownMedia)

	_, _, err = ResolveMedia([]string{"social"}, []string{"tiktok-vertical"})
	assert.ErrorIs(t, err, ErrUnknownMedia)
}
