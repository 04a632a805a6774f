package main

import (
	"fmt"
	"html"
	"strings"
)

const HELP_TEXT = `🤖 <b>Studocu Bot Commands:</b>

/start - Subscribe this chat
/status - Show the Studocu session status
/stop - Unsubscribe this chat
/help - Show this help message`

// HandleCommand returns the reply text for a bot command sent from chatID.
func HandleCommand(dbService *DatabaseService, chatID int64, username, command string) string {
	switch strings.ToLower(command) {
	case "start":
		if err := dbService.SaveChat(chatID, username); err != nil {
			return fmt.Sprintf("❌ Failed to subscribe: %s", html.EscapeString(err.Error()))
		}
		return "👋 Welcome! This chat is now subscribed.\n\n" + HELP_TEXT

	case "help":
		return HELP_TEXT

	case "status":
		return statusText(dbService)

	case "stop":
		if !dbService.ChatExists(chatID) {
			return "This chat is not subscribed."
		}
		if err := dbService.DeleteChat(chatID); err != nil {
			return fmt.Sprintf("❌ Failed to unsubscribe: %s", html.EscapeString(err.Error()))
		}
		return "👋 This chat has been unsubscribed."

	default:
		return fmt.Sprintf("Unknown command /%s. Use /help to see available commands.", html.EscapeString(command))
	}
}

func statusText(dbService *DatabaseService) string {
	attempt, err := dbService.GetLastLoginAttempt()
	if err != nil {
		return fmt.Sprintf("❌ Failed to read status: %s", html.EscapeString(err.Error()))
	}
	if attempt == nil {
		return "ℹ️ No Studocu login attempts recorded yet."
	}

	when := attempt.AttemptedAt.Format("2006-01-02 15:04:05")
	if attempt.Success {
		return fmt.Sprintf("✅ Studocu session active for <code>%s</code>\n🕒 Last login: %s", html.EscapeString(attempt.Email), when)
	}
	return fmt.Sprintf("❌ Last Studocu login failed for <code>%s</code>\n🕒 %s\nReason: %s",
		html.EscapeString(attempt.Email), when, html.EscapeString(attempt.Reason))
}
