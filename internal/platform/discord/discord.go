package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/khxzi/ticketbridge/internal/log"
	"github.com/khxzi/ticketbridge/internal/platform"
	"github.com/khxzi/ticketbridge/internal/ticket"
)

// Adapter implements platform.Client and platform.Notifier on top of a
// Discord bot session, and feeds gateway events into a platform.Handler.
// Ticket channels are created as text channels under the configured
// category in one guild.
type Adapter struct {
	session     *discordgo.Session
	guildID     string
	categoryID  string
	staffRoleID string
	handler     platform.Handler
	log         zerolog.Logger
}

// Options configures the adapter. StaffRoleID is optional; when set, the
// opening notice pings that role so staff see new tickets without watching
// the category.
type Options struct {
	BotToken    string
	GuildID     string
	CategoryID  string
	StaffRoleID string
}

// New builds the adapter and its bot session. The session is not opened
// until Start.
func New(opts Options, logger *zerolog.Logger) (*Adapter, error) {
	session, err := discordgo.New("Bot " + opts.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Adapter{
		session:     session,
		guildID:     opts.GuildID,
		categoryID:  opts.CategoryID,
		staffRoleID: opts.StaffRoleID,
		log:         log.Component(logger, "discord"),
	}, nil
}

// Bind sets the consumer of inbound gateway events. Must be called before
// Start.
func (a *Adapter) Bind(h platform.Handler) {
	a.handler = h
}

// Start registers gateway handlers and opens the websocket session.
func (a *Adapter) Start() error {
	a.session.AddHandler(a.onReady)
	a.session.AddHandler(a.onMessageCreate)
	a.session.AddHandler(a.onChannelDelete)

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Stop closes the gateway session.
func (a *Adapter) Stop() error {
	return a.session.Close()
}

func (a *Adapter) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	a.log.Info().Str("bot", r.User.Username).Msg("discord bot ready")
}

func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if a.handler == nil || m.GuildID != a.guildID {
		return
	}
	// The relay's own outgoing messages come back through the gateway;
	// forwarding them would echo every visitor message to itself.
	if m.Author == nil || m.Author.Bot {
		return
	}

	a.handler.HandlePlatformMessage(m.ChannelID, m.Author.Username, m.Author.AvatarURL(""), m.Content, m.Timestamp)
}

func (a *Adapter) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	if a.handler == nil || c.GuildID != a.guildID {
		return
	}
	a.handler.HandleChannelRemoved(c.ID)
}

// CreateChannel creates a text channel under the ticket category.
func (a *Adapter) CreateChannel(_ context.Context, name string) (string, error) {
	ch, err := a.session.GuildChannelCreateComplex(a.guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: a.categoryID,
	})
	if err != nil {
		return "", fmt.Errorf("create channel %q: %w", name, err)
	}
	return ch.ID, nil
}

// SendMessage posts plain text into a channel.
func (a *Adapter) SendMessage(_ context.Context, channelID, text string) error {
	if _, err := a.session.ChannelMessageSend(channelID, text); err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

// DeleteChannel removes a channel, recording the reason in the audit log.
func (a *Adapter) DeleteChannel(_ context.Context, channelID, reason string) error {
	if _, err := a.session.ChannelDelete(channelID, discordgo.WithAuditLogReason(reason)); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

// AnnounceTicket posts the branded opening notice into a fresh ticket
// channel. Falls back to a bare embed when the buttons are rejected.
func (a *Adapter) AnnounceTicket(_ context.Context, channelID string, user ticket.User) error {
	embed := &discordgo.MessageEmbed{
		Color: 0xC72828,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    "Khxzi's Dev Services",
			IconURL: "https://khxzi.com/assets/logo.png",
		},
		Title: "\U0001F3AB Ticket Created - Order Website",
		Description: fmt.Sprintf("Hello <@%s>!\n\nYour Order Website ticket has been created.\n"+
			"Please describe your issue in detail and a staff member will assist you shortly.", user.ID),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Ticket Information",
				Value: fmt.Sprintf("• Category: Order Website\n• Created: %s\n• User: %s",
					time.Now().Format("Jan 2, 2006 15:04:05"), user.Username),
			},
		},
		Image:     &discordgo.MessageEmbedImage{URL: "https://khxzi.com/assets/banner.png"},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Discord Ticket System v1.0.0"},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	_, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: staffMention(a.staffRoleID),
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: "close_by_staff",
						Label:    "Close Ticket",
						Style:    discordgo.DangerButton,
					},
					discordgo.Button{
						Label: "Open Support Site",
						Style: discordgo.LinkButton,
						URL:   "https://khxzi.com",
					},
				},
			},
		},
	})
	if err != nil {
		if _, embedErr := a.session.ChannelMessageSendEmbed(channelID, embed); embedErr != nil {
			return fmt.Errorf("announce ticket in %s: %w", channelID, embedErr)
		}
	}
	return nil
}

// staffMention renders the role ping posted with the opening notice, or ""
// when no staff role is configured.
func staffMention(roleID string) string {
	if roleID == "" {
		return ""
	}
	return "<@&" + roleID + ">"
}

var (
	_ platform.Client   = (*Adapter)(nil)
	_ platform.Notifier = (*Adapter)(nil)
)
