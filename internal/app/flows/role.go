package flows

import (
	"context"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const roleID = "role"

// SelectRole asks for one guild role, pre-selecting current when set.
func (f *Flows) SelectRole(ctx context.Context, origin *interaction.Handle, header interaction.Embed, current domain.RoleID) (domain.RoleID, *interaction.Handle, error) {
	form := interaction.Form[domain.RoleID]{
		Name: "role",
		Render: func(role domain.RoleID) interaction.Surface {
			menu := interaction.SelectMenu{
				CustomID:    roleID,
				Kind:        interaction.SelectRole,
				Placeholder: "ロールを選択してください",
			}
			if role != "" {
				menu.DefaultRoles = []string{role}
			}
			return withHeader(header,
				interaction.SelectRow(menu),
				interaction.ButtonRow(submitButton(role == "")),
			)
		},
		Fields: map[string]interaction.Reducer[domain.RoleID]{
			roleID: func(role domain.RoleID, values []string) (domain.RoleID, interaction.Effect, error) {
				v, err := interaction.FirstValue(roleID, values)
				if err != nil {
					return role, interaction.Rerender, err
				}
				return v, interaction.Rerender, nil
			},
		},
		Submit:    submitID,
		CanSubmit: func(role domain.RoleID) bool { return role != "" },
		Timeout:   f.Timeouts.Picker,
	}
	res, err := interaction.Run(ctx, f.Transport, origin, form, current)
	if err != nil {
		return "", nil, err
	}
	return res.State, res.Last, nil
}
