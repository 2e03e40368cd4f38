package slackbot

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/slack-go/slack"
)

// Member is the cached view of a Slack user.
type Member struct {
	ID    string
	Name  string
	IsBot bool
}

// Directory resolves channel and user IDs to names, caching lookups so a
// busy channel does not hit the Web API on every message.
type Directory struct {
	api   API
	cache *cache.Cache
}

// NewDirectory creates a directory whose entries expire after ttl.
func NewDirectory(api API, ttl time.Duration) *Directory {
	return &Directory{
		api:   api,
		cache: cache.New(ttl, 2*ttl),
	}
}

// ChannelName returns the name of the channel with the given ID.
func (d *Directory) ChannelName(ctx context.Context, channelID string) (string, error) {
	key := "channel:" + channelID
	if name, found := d.cache.Get(key); found {
		return name.(string), nil
	}

	ch, err := d.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		return "", fmt.Errorf("failed to look up channel %s: %w", channelID, err)
	}
	d.cache.Set(key, ch.Name, cache.DefaultExpiration)
	return ch.Name, nil
}

// Member returns the user with the given ID.
func (d *Directory) Member(ctx context.Context, userID string) (Member, error) {
	key := "user:" + userID
	if m, found := d.cache.Get(key); found {
		return m.(Member), nil
	}

	u, err := d.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return Member{}, fmt.Errorf("failed to look up user %s: %w", userID, err)
	}
	m := Member{ID: u.ID, Name: u.Name, IsBot: u.IsBot}
	if m.Name == "" {
		m.Name = userID
	}
	d.cache.Set(key, m, cache.DefaultExpiration)
	return m, nil
}
