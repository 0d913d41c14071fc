package models

type Schedule struct {
	Weekdays string `json:"weekdays"`
	Weekends string `json:"weekends"`
}

type Contacts struct {
	Address  string   `json:"address"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email"`
	Schedule Schedule `json:"schedule"`
}

// Settings holds the site configuration, including the messenger credentials.
type Settings struct {
	TelegramBotToken string `json:"telegram_bot_token"`
	TelegramChatID   string `json:"telegram_chat_id"`
	SiteName         string `json:"site_name"`
	Currency         string `json:"currency"`
}

// HasTelegram reports whether both messenger credentials are present.
func (s Settings) HasTelegram() bool {
	return s.TelegramBotToken != "" && s.TelegramChatID != ""
}

// Public strips the credentials.
func (s Settings) Public() Settings {
	return Settings{SiteName: s.SiteName, Currency: s.Currency}
}

// Merge fills empty fields of s from other.
func (s Settings) Merge(other Settings) Settings {
	if s.TelegramBotToken == "" {
		s.TelegramBotToken = other.TelegramBotToken
	}
	if s.TelegramChatID == "" {
		s.TelegramChatID = other.TelegramChatID
	}
	if s.SiteName == "" {
		s.SiteName = other.SiteName
	}
	if s.Currency == "" {
		s.Currency = other.Currency
	}
	return s
}

type ContactsResponse struct {
	Success bool      `json:"success"`
	Data    *Contacts `json:"data"`
}

type SettingsResponse struct {
	Success bool      `json:"success"`
	Data    *Settings `json:"data"`
}

type CategoriesResponse struct {
	Success bool     `json:"success"`
	Data    []string `json:"data"`
}
