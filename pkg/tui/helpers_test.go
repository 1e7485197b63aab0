package tui

import "github.com/legalintel/counsel/pkg/chat"

func userEntry(content string) chat.Entry {
	return chat.Entry{
		ID:      "u1",
		Role:    chat.RoleUser,
		Content: content,
		Status:  chat.StatusComplete,
	}
}

func assistantEntry(content string, status chat.Status) chat.Entry {
	return chat.Entry{
		ID:      "a1",
		Role:    chat.RoleAssistant,
		Content: content,
		Status:  status,
	}
}

func transcriptOf(entries ...chat.Entry) chat.Transcript {
	return chat.Transcript(entries)
}
