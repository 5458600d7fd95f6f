package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/patrickwarner/adreward/internal/db"
	"github.com/patrickwarner/adreward/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *db.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := &db.RedisStore{Client: client, Ctx: context.Background()}
	return NewRedisCache(store, ttl, nil, zap.NewNop()), store, mr
}

func TestRewardInvalidation(t *testing.T) {
	tests := []struct {
		name     string
		audience Audience
		want     []string
	}{
		{
			name:     "viewer",
			audience: AudienceViewer,
			want:     []string{"adViewHistory:u1", "campaign:c1", "wallet:u1"},
		},
		{
			name:     "advertiser",
			audience: AudienceAdvertiser,
			want:     []string{"adViewHistory:u1", "advertiserCampaigns", "campaign:c1", "wallet:u1"},
		},
		{
			name:     "admin",
			audience: AudienceAdmin,
			want:     []string{"adViewHistory:u1", "allCampaigns", "campaign:c1", "wallet:u1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Strings(RewardInvalidation("u1", "c1", tt.audience))
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, string(KeyActiveCampaigns))
		})
	}
}

func TestMutationInvalidation(t *testing.T) {
	assert.Equal(t, []string{"advertiserCampaigns", "campaign:c1"}, Strings(AddBudgetInvalidation("c1")))
	assert.Equal(t, []string{"activeCampaigns", "allCampaigns", "campaign:c1"}, Strings(ApproveInvalidation("c1")))
	assert.Equal(t, []string{"allCampaigns", "campaign:c1"}, Strings(RejectInvalidation("c1")))
}

func TestKeyKind(t *testing.T) {
	assert.Equal(t, "wallet", WalletKey("u1").Kind())
	assert.Equal(t, "campaign", CampaignKey("a:b").Kind())
	assert.Equal(t, "activeCampaigns", KeyActiveCampaigns.Kind())
}

func TestParseAudience(t *testing.T) {
	assert.Equal(t, AudienceAdmin, ParseAudience("admin"))
	assert.Equal(t, AudienceAdvertiser, ParseAudience("advertiser"))
	assert.Equal(t, AudienceViewer, ParseAudience(""))
	assert.Equal(t, AudienceViewer, ParseAudience("root"))
}

func TestRedisCache_ReadThroughAndInvalidate(t *testing.T) {
	c, _, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	var w models.Wallet
	found, err := c.Get(ctx, WalletKey("u1"), &w)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, WalletKey("u1"), models.Wallet{Balance: 5}))
	require.NoError(t, c.Set(ctx, KeyActiveCampaigns, []models.AdCampaign{{ID: "c1"}}))
	assert.True(t, mr.Exists("adreward:wallet:u1"))

	found, err = c.Get(ctx, WalletKey("u1"), &w)
	require.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 5, w.Balance)

	require.NoError(t, c.Invalidate(ctx, RewardInvalidation("u1", "c1", AudienceViewer)...))
	assert.False(t, mr.Exists("adreward:wallet:u1"))
	assert.True(t, mr.Exists("adreward:activeCampaigns"), "reward must not drop the active list")
}

func TestRedisCache_PublishesInvalidatedKeys(t *testing.T) {
	c, store, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	sub := store.Client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, CampaignKey("c1"), WalletKey("u1")))
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "campaign:c1,wallet:u1", msg.Payload)
}

func TestRedisCache_InvalidateNothing(t *testing.T) {
	c, _, _ := newTestCache(t, time.Minute)
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestRedisCache_TTL(t *testing.T) {
	c, _, mr := newTestCache(t, time.Second)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, CapsKey("maxAdViewsPerDay"), 20))
	mr.FastForward(2 * time.Second)
	var v int
	found, err := c.Get(ctx, CapsKey("maxAdViewsPerDay"), &v)
	require.NoError(t, err)
	assert.False(t, found)
}
