package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdCampaignIsEligible(t *testing.T) {
	tests := []struct {
		name string
		c    *AdCampaign
		want bool
	}{
		{"active with budget", &AdCampaign{Status: StatusActive, Budget: 1}, true},
		{"active without budget", &AdCampaign{Status: StatusActive, Budget: 0}, false},
		{"negative budget", &AdCampaign{Status: StatusActive, Budget: -5}, false},
		{"pending review", &AdCampaign{Status: StatusPendingReview, Budget: 100}, false},
		{"completed", &AdCampaign{Status: StatusCompleted, Budget: 100}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.IsEligible())
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://youtu.be/abc123", "abc123"},
		{"https://www.youtube.com/embed/xyz789?start=3", "xyz789"},
	}
	for _, tt := range tests {
		got, err := ExtractVideoID(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}

	_, err := ExtractVideoID("https://vimeo.com/123")
	assert.ErrorIs(t, err, ErrInvalidVideoURL)
}

func TestExternalContent(t *testing.T) {
	c, err := ExternalContent("https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Equal(t, "youtube_abc123", c.ID)
	assert.True(t, c.IsExternal())
	assert.Equal(t, "https://www.youtube.com/embed/abc123?autoplay=1", c.EmbedURL())
}

func TestRemainingDailyViews(t *testing.T) {
	caps := Caps{MaxAdViewsPerDay: 20, MaxAdsPerYoutubeSession: 3}
	assert.EqualValues(t, 5, RemainingDailyViews(AdViewCounters{DailyViews: 15}, caps))
	assert.EqualValues(t, 0, RemainingDailyViews(AdViewCounters{DailyViews: 20}, caps))
	assert.EqualValues(t, 0, RemainingDailyViews(AdViewCounters{DailyViews: 25}, caps))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$0.05", FormatAmount(5_000_000))
	assert.Equal(t, "$1.00", FormatAmount(AmountScale))
}

func TestInMemoryContentStore(t *testing.T) {
	store := NewTestContentStore(
		Content{ID: "v1", Title: "One", Monetization: MonetizationAdSupported},
		Content{ID: "v2", Title: "Two", Monetization: MonetizationSubscription},
	)

	got := store.GetContent("v1")
	require.NotNil(t, got)
	assert.Equal(t, "One", got.Title)
	assert.Nil(t, store.GetContent("missing"))

	require.NoError(t, store.UpsertContent(Content{ID: "v1", Title: "Uno"}))
	assert.Equal(t, "Uno", store.GetContent("v1").Title)
	assert.Len(t, store.GetAllContent(), 2)

	require.NoError(t, store.UpsertContent(Content{ID: "v3"}))
	assert.Len(t, store.GetAllContent(), 3)

	require.NoError(t, store.DeleteContent("v2"))
	assert.Nil(t, store.GetContent("v2"))
	assert.ErrorIs(t, store.DeleteContent("v2"), ErrNotFound)
}
