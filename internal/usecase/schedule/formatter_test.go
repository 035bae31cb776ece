package schedule

import (
	"strings"
	"testing"
	"time"

	"roe-outage-bot/internal/domain"
)

func TestRenderBuildsMessage(t *testing.T) {
	updated := "01.01.2024 07:30"
	rec := domain.NewScheduleRecord("01.01", []string{"08:00-12:00", "20:00-22:00"}, "02.01", []string{"Очікується"}, &updated)
	now := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)

	got := Render(rec, now)
	want := "<u>01.01</u> очікуються відключення електропостачання:\n<b>08:00-12:00, 20:00-22:00</b>\n\n" +
		"<u>02.01</u> очікуються відключення електропостачання:\n<b>Очікується</b>\n\n" +
		"<i>Оновлено: 01.01.2024 07:30 (09:05)</i>"
	if got != want {
		t.Fatalf("неожиданный текст:\n%s\nожидали:\n%s", got, want)
	}
}

func TestRenderWithoutUpdatedTime(t *testing.T) {
	rec := domain.NewScheduleRecord("03.01", nil, "04.01", nil, nil)
	got := Render(rec, time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC))
	mustContain(t, got, "<b></b>")
	mustContain(t, got, "<i>Оновлено: невідомо (23:00)</i>")
}

func TestRenderEscapesSourceText(t *testing.T) {
	rec := domain.NewScheduleRecord("<script>", nil, "a&b", nil, nil)
	got := Render(rec, time.Now())
	mustContain(t, got, "<u>&lt;script&gt;</u>")
	mustContain(t, got, "<u>a&amp;b</u>")
}

func TestRenderIsDeterministicPerMinute(t *testing.T) {
	rec := domain.NewScheduleRecord("01.01", []string{"08:00-12:00"}, "02.01", nil, nil)
	first := Render(rec, time.Date(2024, 1, 1, 10, 15, 1, 0, time.UTC))
	second := Render(rec, time.Date(2024, 1, 1, 10, 15, 59, 0, time.UTC))
	if first != second {
		t.Fatal("в пределах минуты текст должен совпадать")
	}
	third := Render(rec, time.Date(2024, 1, 1, 10, 16, 0, 0, time.UTC))
	if first == third {
		t.Fatal("смена минуты должна менять подпись")
	}
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("ожидали найти подстроку %q в %q", substr, s)
	}
}
