package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkExtractorPostIDs(t *testing.T) {
	x, err := NewLinkExtractor("https://www.smogon.com/forums/")
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "anchor link",
			text:     "check https://www.smogon.com/forums/threads/foo.123/#post-987654 please",
			expected: []string{"987654"},
		},
		{
			name:     "anchor without slash",
			text:     "https://www.smogon.com/forums/threads/foo-bar.123#post-42",
			expected: []string{"42"},
		},
		{
			name:     "paged thread",
			text:     "https://www.smogon.com/forums/threads/foo.123/page-7#post-555",
			expected: []string{"555"},
		},
		{
			name:     "post path",
			text:     "http://WWW.SMOGON.COM/forums/threads/foo.123/post-777",
			expected: []string{"777"},
		},
		{
			name:     "several links deduplicated in order",
			text:     "https://www.smogon.com/forums/threads/a.1/#post-2 and https://www.smogon.com/forums/threads/b.3/#post-1 and again https://www.smogon.com/forums/threads/a.1/#post-2",
			expected: []string{"2", "1"},
		},
		{
			name: "thread link without post",
			text: "https://www.smogon.com/forums/threads/foo.123/",
		},
		{
			name: "other forum",
			text: "https://example.com/forums/threads/foo.123/#post-987654",
		},
		{
			name: "no link",
			text: "gg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, x.PostIDs(tt.text))
		})
	}
}

func TestNewLinkExtractorRejectsBadURL(t *testing.T) {
	_, err := NewLinkExtractor("not a url")
	assert.Error(t, err)
}
