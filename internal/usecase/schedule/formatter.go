package schedule

import (
	"fmt"
	"html"
	"strings"
	"time"

	"roe-outage-bot/internal/domain"
)

const (
	slotSeparator  = ", "
	outageHeadline = "очікуються відключення електропостачання:"
	unknownUpdated = "невідомо"
	clockLayout    = "15:04"
)

// Render формирует текст сообщения о графике отключений.
// now попадает в подпись как время проверки в формате ЧЧ:ММ.
func Render(rec domain.ScheduleRecord, now time.Time) string {
	updated, ok := rec.Updated()
	if !ok {
		updated = unknownUpdated
	}

	var b strings.Builder
	writeDay(&b, rec.Date, rec.CurrentQueueSlots)
	b.WriteString("\n\n")
	writeDay(&b, rec.NextDate, rec.NextQueueSlots)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "<i>Оновлено: %s (%s)</i>", escapeHTML(updated), now.Format(clockLayout))
	return b.String()
}

func writeDay(b *strings.Builder, date string, slots []string) {
	escaped := make([]string, 0, len(slots))
	for _, slot := range slots {
		escaped = append(escaped, escapeHTML(slot))
	}
	fmt.Fprintf(b, "<u>%s</u> %s\n<b>%s</b>", escapeHTML(date), outageHeadline, strings.Join(escaped, slotSeparator))
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}
