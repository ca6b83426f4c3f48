package discord

import (
	"bytes"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
)

// Platform limits, in characters.
const (
	maxLabel       = 100
	maxPlaceholder = 150
	maxTitle       = 256
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxDescription = 4096
	maxModalTitle  = 45
	maxInputLabel  = 45
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func toEmbeds(embeds []interaction.Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		me := &discordgo.MessageEmbed{
			Title:       truncate(e.Title, maxTitle),
			Description: truncate(e.Description, maxDescription),
			Color:       int(e.Color),
		}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{
				Name:   truncate(f.Name, maxFieldName),
				Value:  truncate(f.Value, maxFieldValue),
				Inline: f.Inline,
			})
		}
		if e.Author != nil {
			me.Author = &discordgo.MessageEmbedAuthor{Name: e.Author.Name, IconURL: e.Author.IconURL}
		}
		if e.Thumbnail != "" {
			me.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
		}
		if !e.Timestamp.IsZero() {
			me.Timestamp = e.Timestamp.Format(time.RFC3339)
		}
		out = append(out, me)
	}
	return out
}

var buttonStyles = map[interaction.ButtonStyle]discordgo.ButtonStyle{
	interaction.ButtonPrimary:   discordgo.PrimaryButton,
	interaction.ButtonSecondary: discordgo.SecondaryButton,
	interaction.ButtonSuccess:   discordgo.SuccessButton,
	interaction.ButtonDanger:    discordgo.DangerButton,
}

func toComponents(rows []interaction.Row) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, r := range rows {
		row := discordgo.ActionsRow{}
		if r.Select != nil {
			row.Components = append(row.Components, toSelectMenu(*r.Select))
		}
		for _, b := range r.Buttons {
			row.Components = append(row.Components, discordgo.Button{
				CustomID: b.CustomID,
				Label:    truncate(b.Label, maxLabel),
				Style:    buttonStyles[b.Style],
				Disabled: b.Disabled,
			})
		}
		out = append(out, row)
	}
	return out
}

func toSelectMenu(m interaction.SelectMenu) discordgo.SelectMenu {
	menu := discordgo.SelectMenu{
		CustomID:    m.CustomID,
		Placeholder: truncate(m.Placeholder, maxPlaceholder),
		Disabled:    m.Disabled,
	}
	switch m.Kind {
	case interaction.SelectRole:
		menu.MenuType = discordgo.RoleSelectMenu
		for _, id := range m.DefaultRoles {
			menu.DefaultValues = append(menu.DefaultValues, discordgo.SelectMenuDefaultValue{
				ID:   id,
				Type: discordgo.SelectMenuDefaultValueRole,
			})
		}
	default:
		menu.MenuType = discordgo.StringSelectMenu
		for _, o := range m.Options {
			menu.Options = append(menu.Options, discordgo.SelectMenuOption{
				Label:       truncate(o.Label, maxLabel),
				Value:       truncate(o.Value, maxLabel),
				Description: truncate(o.Description, maxLabel),
				Default:     o.Default,
			})
		}
	}
	return menu
}

func toFiles(files []interaction.File) []*discordgo.File {
	out := make([]*discordgo.File, 0, len(files))
	for _, f := range files {
		out = append(out, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}
	return out
}

// toResponseData renders a complete surface. Empty embeds and components are
// sent as empty lists so an update clears what the message showed before.
func toResponseData(s interaction.Surface) *discordgo.InteractionResponseData {
	embeds := toEmbeds(s.Embeds)
	components := toComponents(s.Rows)
	data := &discordgo.InteractionResponseData{
		Content:    s.Content,
		Embeds:     embeds,
		Components: components,
		Files:      toFiles(s.Files),
	}
	if s.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

func toMessageSend(s interaction.Surface) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    s.Content,
		Embeds:     toEmbeds(s.Embeds),
		Components: toComponents(s.Rows),
		Files:      toFiles(s.Files),
	}
}

var textStyles = map[interaction.TextStyle]discordgo.TextInputStyle{
	interaction.TextShort:     discordgo.TextInputShort,
	interaction.TextParagraph: discordgo.TextInputParagraph,
}

func toModalData(m interaction.Modal) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(m.Fields))
	for _, f := range m.Fields {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    f.CustomID,
				Label:       truncate(f.Label, maxInputLabel),
				Style:       textStyles[f.Style],
				Value:       f.Value,
				Placeholder: truncate(f.Placeholder, maxLabel),
				Required:    f.Required,
			},
		}})
	}
	return &discordgo.InteractionResponseData{
		CustomID:   m.CustomID,
		Title:      truncate(m.Title, maxModalTitle),
		Components: rows,
	}
}

// modalValues flattens the text inputs of a modal submission.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

func toUser(i *discordgo.Interaction) interaction.User {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return interaction.User{}
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return interaction.User{ID: u.ID, Name: name, AvatarURL: u.AvatarURL("")}
}
