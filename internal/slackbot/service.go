package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"golang.org/x/time/rate"

	"attendance-bot/config"
	"attendance-bot/internal/dispatch"
)

// API is the part of the Slack Web API the bot uses.
type API interface {
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Submitter hands events to the attendance core.
type Submitter interface {
	Submit(ctx context.Context, ev dispatch.Event) (dispatch.Result, error)
}

// Replier posts a message into a channel.
type Replier interface {
	Reply(ctx context.Context, channelID, text string) error
}

// throttledReplier posts through the Web API, never faster than the limiter allows.
type throttledReplier struct {
	api     API
	limiter *rate.Limiter
}

// NewReplier creates a Replier that posts at most ratePerSec messages per second.
func NewReplier(api API, ratePerSec float64, burst int) Replier {
	return &throttledReplier{api: api, limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

func (r *throttledReplier) Reply(ctx context.Context, channelID, text string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("reply throttled: %w", err)
	}
	if _, _, err := r.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

// Service bridges Slack Socket Mode message events to the dispatcher.
type Service struct {
	cfg        *config.Config
	socket     *socketmode.Client
	ack        func(req socketmode.Request, payload ...interface{})
	directory  *Directory
	dispatcher Submitter
	replier    Replier
}

// NewService creates the Slack transport. It does not connect until Run.
func NewService(cfg *config.Config, dispatcher Submitter) *Service {
	api := slack.New(cfg.Slack.BotToken,
		slack.OptionAppLevelToken(cfg.Slack.AppToken),
		slack.OptionDebug(cfg.Slack.Debug),
	)
	socket := socketmode.New(api, socketmode.OptionDebug(cfg.Slack.Debug))

	s := newService(cfg, api, dispatcher, NewReplier(api, cfg.Slack.ReplyRatePerSec, cfg.Slack.ReplyBurst))
	s.socket = socket
	s.ack = socket.Ack
	return s
}

func newService(cfg *config.Config, api API, dispatcher Submitter, replier Replier) *Service {
	return &Service{
		cfg:        cfg,
		ack:        func(socketmode.Request, ...interface{}) {},
		directory:  NewDirectory(api, cfg.Slack.DirectoryTTL),
		dispatcher: dispatcher,
		replier:    replier,
	}
}

// Run connects to Slack and forwards events until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Slack.Enabled {
		log.Println("Slack transport is disabled. Not starting.")
		return
	}
	log.Println("Starting Slack transport...")

	go func() {
		if err := s.socket.RunContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Slack socket mode stopped: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Println("Slack transport shutting down.")
			return
		case evt, ok := <-s.socket.Events:
			if !ok {
				log.Println("Slack event stream closed.")
				return
			}
			s.handleEvent(ctx, evt)
		}
	}
}

func (s *Service) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		log.Println("Connecting to Slack with Socket Mode...")
	case socketmode.EventTypeConnectionError:
		log.Printf("Slack connection failed, retrying: %v", evt.Data)
	case socketmode.EventTypeConnected:
		log.Println("Connected to Slack with Socket Mode.")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			log.Printf("Warning: ignoring unexpected Events API payload %T", evt.Data)
			return
		}
		if evt.Request != nil {
			s.ack(*evt.Request)
		}
		if apiEvent.Type != slackevents.CallbackEvent {
			return
		}
		if msg, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			s.handleMessage(ctx, msg)
		}
	}
}

// commandSubtypes are the message subtypes whose text is read as a command.
var commandSubtypes = map[string]bool{
	"":                 true,
	"bot_message":      true,
	"file_share":       true,
	"thread_broadcast": true,
}

// handleMessage turns a channel message into a dispatcher event and posts the reply.
func (s *Service) handleMessage(ctx context.Context, msg *slackevents.MessageEvent) {
	// Edits, deletions and joins carry other subtypes and are not commands.
	if !commandSubtypes[msg.SubType] {
		return
	}

	fromBot := msg.BotID != "" || msg.SubType == "bot_message"
	ev := dispatch.Event{
		EmployeeID: msg.User,
		Text:       msg.Text,
		FromBot:    fromBot,
	}

	channelName, err := s.directory.ChannelName(ctx, msg.Channel)
	if err != nil {
		log.Printf("Error resolving channel of message %s: %v", msg.TimeStamp, err)
		return
	}
	ev.Channel = channelName

	if !fromBot {
		member, err := s.directory.Member(ctx, msg.User)
		if err != nil {
			log.Printf("Error resolving author of message %s: %v", msg.TimeStamp, err)
			return
		}
		ev.EmployeeName = member.Name
		ev.FromBot = member.IsBot
	}

	at, err := ParseTimestamp(msg.TimeStamp)
	if err != nil {
		log.Printf("Warning: %v; using receive time", err)
		at = time.Now().UTC()
	}
	ev.Timestamp = at

	res, err := s.dispatcher.Submit(ctx, ev)
	if err != nil {
		log.Printf("Error submitting message %s: %v", msg.TimeStamp, err)
		return
	}

	text, send := res.Reply(Mention(msg.User), s.cfg.Attendance.ShouldConfirm())
	if !send {
		return
	}
	if err := s.replier.Reply(ctx, msg.Channel, text); err != nil {
		log.Printf("Error replying to %s: %v", msg.User, err)
	}
}

// Mention formats a Slack user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// ParseTimestamp converts a Slack message ts ("1700000000.000200") to a UTC instant.
func ParseTimestamp(ts string) (time.Time, error) {
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slack timestamp %q: %w", ts, err)
	}

	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid slack timestamp %q: %w", ts, err)
		}
		for i := len(fracPart); i < 9; i++ {
			frac *= 10
		}
		nsec = frac
	}
	return time.Unix(sec, nsec).UTC(), nil
}
