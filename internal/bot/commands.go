package bot

import telebot "gopkg.in/telebot.v3"

// Command constants for Telegram bot commands.
const (
	CommandStart        = "/start"
	CommandHelp         = "/help"
	CommandQuickHelp    = "/quickhelp"
	CommandPrivacy      = "/privacy"
	CommandDonate       = "/donate"
	CommandMarkdownHelp = "/markdownhelp"
	CommandFormatHelp   = "/formathelp"
	CommandFillingHelp  = "/fillinghelp"
)

// Commands lists the commands advertised in the Telegram command menu.
// Aliases are left out.
func Commands() []telebot.Command {
	return []telebot.Command{
		{Text: "start", Description: "Start menu"},
		{Text: "help", Description: "Browse help topics"},
		{Text: "quickhelp", Description: "Short command list"},
		{Text: "privacy", Description: "What data the bot keeps"},
		{Text: "donate", Description: "Support the project"},
		{Text: "markdownhelp", Description: "Formatting syntax"},
		{Text: "formathelp", Description: "Placeholders for saved texts"},
	}
}
