package telegram

import "strings"

const messageLimit = 4096

// FitMessage возвращает текст, укладывающийся в одно сообщение Telegram.
// Длинный текст обрезается по последнему переводу строки перед лимитом,
// а при его отсутствии — ровно по лимиту.
func FitMessage(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= messageLimit {
		return trimmed
	}

	cut := messageLimit
	for i := messageLimit; i > 0; i-- {
		if runes[i-1] == '\n' {
			cut = i
			break
		}
	}
	head := strings.TrimRight(string(runes[:cut]), "\n")
	if head == "" {
		return string(runes[:messageLimit])
	}
	return head
}
