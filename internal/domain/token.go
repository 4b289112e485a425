package domain

// TokenRecord holds the credentials obtained when a team installs the bot.
// One record per team; a reinstall replaces the record wholesale.
type TokenRecord struct {
	AccessToken string `json:"accessToken"`
	TeamID      string `json:"teamId"`
	TeamName    string `json:"teamName"`
	BotUserID   string `json:"botUserId"`
	AppID       string `json:"appId"`
}
