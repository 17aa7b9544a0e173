// Package telegram posts curation run reports to a Telegram chat through
// the Bot API.
//
// Authentication requires a bot token (from @BotFather) and a chat ID.
// Messages are sent with HTML parse mode; FormatReport escapes everything it
// interpolates.
package telegram
