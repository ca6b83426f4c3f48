package discord

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/taskbot/internal/app/commands"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAPI struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	sent      []*discordgo.MessageSend
}

func (f *fakeAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) InteractionResponse(i *discordgo.Interaction, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{ID: "reply-" + i.ID, ChannelID: i.ChannelID}, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: "sent-1", ChannelID: channelID}, nil
}

func (f *fakeAPI) Responses() []*discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.InteractionResponse(nil), f.responses...)
}

var member = &discordgo.Member{User: &discordgo.User{ID: "u-1", Username: "alice"}}

func component(msgID, customID string, kind discordgo.ComponentType, values ...string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i-" + customID,
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "chan-1",
		Message:   &discordgo.Message{ID: msgID},
		Member:    member,
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: kind,
			Values:        values,
		},
	}
}

type handlerFunc func(context.Context, commands.Invocation) error

func (f handlerFunc) Execute(ctx context.Context, inv commands.Invocation) error { return f(ctx, inv) }

func TestComponentReachesSubscription(t *testing.T) {
	api := &fakeAPI{}
	r := NewRouter(api)
	sub := r.Subscribe(domain.MessageRef{ChannelID: "chan-1", MessageID: "m-1"})
	defer sub.Close()

	r.Handle(context.Background(), nil, component("m-1", "subject", discordgo.SelectMenuComponent, "subj:0"))
	r.Handle(context.Background(), nil, component("m-1", "submit", discordgo.ButtonComponent))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	first, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, interaction.ActionSelect, first.Kind)
	assert.Equal(t, []string{"subj:0"}, first.Values)
	assert.Equal(t, "u-1", first.User.ID)

	second, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, interaction.ActionButton, second.Kind)

	ref, err := second.Handle.Update(ctx, interaction.Surface{})
	require.NoError(t, err)
	assert.Equal(t, "m-1", ref.MessageID)

	resp := api.Responses()
	require.Len(t, resp, 1)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp[0].Type)
	assert.NotNil(t, resp[0].Data.Components, "an update always restates components")
	assert.Empty(t, resp[0].Data.Components)
}

func TestOrphanComponentIsAcknowledged(t *testing.T) {
	api := &fakeAPI{}
	r := NewRouter(api)
	sub := r.Subscribe(domain.MessageRef{MessageID: "m-1"})
	sub.Close()

	r.Handle(context.Background(), nil, component("m-1", "submit", discordgo.ButtonComponent))

	resp := api.Responses()
	require.Len(t, resp, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, resp[0].Type)
}

func TestModalSubmissionReachesWaiter(t *testing.T) {
	api := &fakeAPI{}
	r := NewRouter(api)

	done := make(chan interaction.ModalSubmission, 1)
	go func() {
		sub, err := r.AwaitModal(context.Background(), "details:1")
		if err == nil {
			done <- sub
		}
	}()

	submit := &discordgo.Interaction{
		ID:      "i-modal",
		Type:    discordgo.InteractionModalSubmit,
		Member:  member,
		Message: &discordgo.Message{ID: "m-1"},
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: "details:1",
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: "details", Value: "p.12"},
				}},
			},
		},
	}
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.modals["details:1"] != nil
	}, time.Second, time.Millisecond)
	r.Handle(context.Background(), nil, submit)

	got := <-done
	assert.Equal(t, map[string]string{"details": "p.12"}, got.Values)
	assert.Empty(t, api.Responses(), "the waiter answers the submission")
}

func TestAwaitModalTimesOut(t *testing.T) {
	r := NewRouter(&fakeAPI{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.AwaitModal(ctx, "details:2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, r.modals)
}

func TestCommandDispatch(t *testing.T) {
	api := &fakeAPI{}
	r := NewRouter(api)
	got := make(chan commands.Invocation, 1)
	h := handlerFunc(func(ctx context.Context, inv commands.Invocation) error {
		_, err := inv.Handle.Reply(ctx, interaction.Surface{Content: "ok", Ephemeral: true})
		got <- inv
		return err
	})

	r.Handle(context.Background(), h, &discordgo.Interaction{
		ID:        "i-cmd",
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "chan-2",
		Member:    member,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "add_subjects",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "subjects", Type: discordgo.ApplicationCommandOptionString, Value: "数学,英語"},
			},
		},
	})
	r.Wait()

	inv := <-got
	assert.Equal(t, "add_subjects", inv.Command)
	assert.Equal(t, "chan-2", inv.Channel)
	assert.Equal(t, "数学,英語", inv.Options["subjects"])
	assert.Equal(t, interaction.OriginCommand, inv.Handle.Origin())

	resp := api.Responses()
	require.Len(t, resp, 1)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp[0].Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp[0].Data.Flags)
}

func TestSend(t *testing.T) {
	api := &fakeAPI{}
	r := NewRouter(api)

	ref, err := r.Send(context.Background(), "log", interaction.Surface{
		Embeds: []interaction.Embed{{Title: "データのバックアップ"}},
		Files:  []interaction.File{{Name: "1.json", Data: []byte("{}")}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageRef{ChannelID: "log", MessageID: "sent-1"}, ref)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "1.json", api.sent[0].Files[0].Name)
}

func TestConvertTruncatesLabels(t *testing.T) {
	long := strings.Repeat("あ", 120)
	rows := toComponents([]interaction.Row{interaction.SelectRow(interaction.SelectMenu{
		CustomID: "item",
		Options:  []interaction.Option{{Label: long, Value: "0", Description: long}},
	})})

	menu := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, discordgo.StringSelectMenu, menu.MenuType)
	assert.Len(t, []rune(menu.Options[0].Label), maxLabel)
	assert.True(t, strings.HasSuffix(menu.Options[0].Label, "…"))
	assert.Len(t, []rune(menu.Options[0].Description), maxLabel)
}

func TestConvertRoleMenu(t *testing.T) {
	rows := toComponents([]interaction.Row{interaction.SelectRow(interaction.SelectMenu{
		CustomID:     "role",
		Kind:         interaction.SelectRole,
		DefaultRoles: []string{"r-1"},
	})})

	menu := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, discordgo.RoleSelectMenu, menu.MenuType)
	require.Len(t, menu.DefaultValues, 1)
	assert.Equal(t, "r-1", menu.DefaultValues[0].ID)
	assert.Empty(t, menu.Options)
}

func TestConvertEmbed(t *testing.T) {
	at := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	embeds := toEmbeds([]interaction.Embed{{
		Title:     "パネル操作",
		Color:     interaction.ColorDarkBlue,
		Author:    &interaction.Author{Name: "alice"},
		Thumbnail: "https://cdn/avatar.png",
		Timestamp: at,
		Fields:    []interaction.EmbedField{{Name: "n", Value: "v"}},
	}})

	require.Len(t, embeds, 1)
	e := embeds[0]
	assert.Equal(t, int(interaction.ColorDarkBlue), e.Color)
	assert.Equal(t, "alice", e.Author.Name)
	assert.Equal(t, "https://cdn/avatar.png", e.Thumbnail.URL)
	assert.Equal(t, "2025-03-20T12:00:00Z", e.Timestamp)
	assert.Equal(t, "v", e.Fields[0].Value)
}

func TestApplicationCommands(t *testing.T) {
	cmds := ApplicationCommands(commands.Definitions())
	require.Len(t, cmds, 11)
	for _, c := range cmds {
		if c.Name == commands.CmdAddSuggestTime {
			require.Len(t, c.Options, 1)
			assert.Equal(t, "label", c.Options[0].Name)
			assert.True(t, c.Options[0].Required)
		}
	}
}
