package bridge

import "github.com/taurisky/taurisky/internal/models"

// Backend command names.
const (
	CmdLogin           = "login"
	CmdLogout          = "logout"
	CmdRestoreSessions = "restore_sessions"
	CmdRefreshSession  = "refresh_session"
	CmdSessionStatus   = "session_status"
	CmdListAccounts    = "list_accounts"
	CmdAddAccount      = "add_account"
	CmdRemoveAccount   = "remove_account"
	CmdGetColumns      = "get_columns"
	CmdSaveColumns     = "save_columns_command"
	CmdBackupColumns   = "backup_columns"
	CmdRestoreColumns  = "restore_columns"
)

// CredentialsArgs is the payload of login and add_account. An empty
// ServerURL selects the default PDS.
type CredentialsArgs struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	ServerURL  string `json:"serverUrl,omitempty"`
}

// AccountArgs names one account.
type AccountArgs struct {
	AccountID string `json:"accountId"`
}

// SaveColumnsArgs replaces the whole stored column list.
type SaveColumnsArgs struct {
	Columns []models.DeckColumnConfig `json:"columns"`
}
