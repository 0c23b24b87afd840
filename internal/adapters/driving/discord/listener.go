package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driving"
	"github.com/custodia-labs/blockwatch/internal/logger"
)

// Reaction emoji applied to messages.
const (
	// ReactionBlocked marks a message whose tweet author is blocked.
	ReactionBlocked = "⛔"
	// ReactionFailure marks a message whose link could not be checked.
	ReactionFailure = "🛠️"
)

// Listener is the Discord-facing edge of blockwatch.
type Listener struct {
	session  *discordgo.Session
	resolver driven.TweetResolver
	blocked  driving.BlocklistQuery
}

// NewListener creates a listener over a bot token. The session is not
// opened until Start is called.
func NewListener(token string, resolver driven.TweetResolver, blocked driving.BlocklistQuery) (*Listener, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	l := &Listener{
		session:  session,
		resolver: resolver,
		blocked:  blocked,
	}
	session.AddHandler(l.onReady)
	session.AddHandler(l.onMessage)
	return l, nil
}

// Start opens the gateway connection.
func (l *Listener) Start() error {
	if err := l.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (l *Listener) Stop() error {
	return l.session.Close()
}

func (l *Listener) onReady(_ *discordgo.Session, event *discordgo.Ready) {
	logger.Info("discord connected as %s#%s", event.User.Username, event.User.Discriminator)
}

// onMessage checks every incoming guild message for tweet links.
func (l *Listener) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	urls := MatchStatusURLs(m.Content)
	if len(urls) == 0 {
		return
	}

	ctx := context.Background()
	for _, statusURL := range urls {
		l.checkLink(ctx, s, m, statusURL)
	}
}

// checkLink resolves one link and reacts on the message. Resolution or
// lookup failures get the failure reaction so readers know the check
// did not happen.
func (l *Listener) checkLink(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, statusURL string) {
	tweet, err := l.resolver.ResolveStatus(ctx, statusURL)
	if err != nil {
		logger.Warn("resolving %s: %v", statusURL, err)
		l.react(s, m, ReactionFailure)
		return
	}

	blocked, err := l.blocked.IsBlocked(ctx, tweet.ScreenName)
	if err != nil {
		logger.Warn("checking author %s: %v", tweet.ScreenName, err)
		l.react(s, m, ReactionFailure)
		return
	}

	logger.Debug("message %s links @%s (blocked=%t)", m.ID, tweet.ScreenName, blocked)
	if blocked {
		l.react(s, m, ReactionBlocked)
	}
}

func (l *Listener) react(s *discordgo.Session, m *discordgo.MessageCreate, emoji string) {
	if err := s.MessageReactionAdd(m.ChannelID, m.ID, emoji); err != nil {
		logger.Warn("adding reaction to message %s: %v", m.ID, err)
	}
}
