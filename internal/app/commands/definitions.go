package commands

const (
	CmdAddTask           = "add_task"
	CmdRemoveTask        = "remove_task"
	CmdEditTask          = "edit_task"
	CmdAddSubjects       = "add_subjects"
	CmdRemoveSubject     = "remove_subject"
	CmdAddSuggestTime    = "add_suggest_time"
	CmdRemoveSuggestTime = "remove_suggest_time"
	CmdDeployPanel       = "deploy_panel"
	CmdSetPingChannel    = "set_ping_channel"
	CmdSetPingRole       = "set_ping_role"
	CmdSetLogChannel     = "set_log_channel"
)

const (
	optSubjects = "subjects"
	optLabel    = "label"
)

type OptionDef struct {
	Name        string
	Description string
	Required    bool
}

// Definition describes a command for registration with the platform.
type Definition struct {
	Name        string
	Description string
	Options     []OptionDef
}

func Definitions() []Definition {
	return []Definition{
		{Name: CmdAddTask, Description: "タスクを追加します。"},
		{Name: CmdRemoveTask, Description: "タスクを削除します。"},
		{Name: CmdEditTask, Description: "タスクを編集します。"},
		{Name: CmdAddSubjects, Description: "教科を追加します。", Options: []OptionDef{
			{Name: optSubjects, Description: "追加したい教科 / カンマ区切りで複数追加できます", Required: true},
		}},
		{Name: CmdRemoveSubject, Description: "教科を削除します。"},
		{Name: CmdAddSuggestTime, Description: "よく使う時間を追加します。", Options: []OptionDef{
			{Name: optLabel, Description: "よく使う時間のラベル(例: 1限開始時刻)", Required: true},
		}},
		{Name: CmdRemoveSuggestTime, Description: "よく使う時間を削除します。"},
		{Name: CmdDeployPanel, Description: "パネルをデプロイします。"},
		{Name: CmdSetPingChannel, Description: "タスク通知を送るチャンネルを設定します。"},
		{Name: CmdSetPingRole, Description: "タスク通知を送るロールを設定します。"},
		{Name: CmdSetLogChannel, Description: "管理者向けログを送るチャンネルを設定します。"},
	}
}
