package source

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"roe-outage-bot/internal/domain"
)

// Смещения строк и колонок фиксированы вёрсткой страницы источника:
// первые три строки таблицы — шапка с названиями черг, далее по строке на день.
const (
	currentDayRow = 3
	nextDayRow    = 4
	dateColumn    = 0
	queueColumn   = 1
)

// DefaultPendingMarker — текст, который источник ставит вместо графика, пока он не опубликован.
const DefaultPendingMarker = "Очікується"

var updatedPattern = regexp.MustCompile(`Оновлено:\s*(\d{2}\.\d{2}\.\d{4} \d{2}:\d{2})`)

var dashReplacer = strings.NewReplacer("–", "-", "—", "-", "−", "-")

// Options настраивает разбор страницы.
type Options struct {
	PendingMarker string
}

// ParseSchedule разбирает HTML страницы в ScheduleRecord.
// Любая ошибка разметки возвращается как *domain.ExtractionError вида parse.
func ParseSchedule(r io.Reader, opts Options) (rec domain.ScheduleRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			rec = domain.ScheduleRecord{}
			err = domain.ParseFailure(fmt.Errorf("panic while parsing: %v", p))
		}
	}()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.ScheduleRecord{}, domain.ParseFailure(fmt.Errorf("read html: %w", err))
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return domain.ScheduleRecord{}, domain.ParseFailure(errors.New("table not found"))
	}
	rows := table.Find("tr")

	current, err := rowCells(rows, currentDayRow)
	if err != nil {
		return domain.ScheduleRecord{}, err
	}
	next, err := rowCells(rows, nextDayRow)
	if err != nil {
		return domain.ScheduleRecord{}, err
	}

	date := strings.TrimSpace(current.Eq(dateColumn).Text())
	nextDate := strings.TrimSpace(next.Eq(dateColumn).Text())
	currentSlots := queueSlots(current.Eq(queueColumn))

	nextCell := next.Eq(queueColumn)
	var nextSlots []string
	if marker := opts.PendingMarker; marker != "" && strings.Contains(nextCell.Text(), marker) {
		nextSlots = []string{marker}
	} else {
		nextSlots = queueSlots(nextCell)
	}

	return domain.NewScheduleRecord(date, currentSlots, nextDate, nextSlots, findUpdated(doc)), nil
}

func rowCells(rows *goquery.Selection, index int) (*goquery.Selection, error) {
	row := rows.Eq(index)
	if row.Length() == 0 {
		return nil, domain.ParseFailure(fmt.Errorf("row %d not found (table has %d rows)", index, rows.Length()))
	}
	cells := row.Find("td")
	if cells.Length() <= queueColumn {
		return nil, domain.ParseFailure(fmt.Errorf("row %d has %d cells, need column %d", index, cells.Length(), queueColumn))
	}
	return cells, nil
}

func queueSlots(cell *goquery.Selection) []string {
	var raw []string
	paragraphs := cell.Find("p")
	if paragraphs.Length() == 0 {
		raw = append(raw, cell.Text())
	} else {
		paragraphs.Each(func(_ int, p *goquery.Selection) {
			raw = append(raw, p.Text())
		})
	}

	slots := make([]string, 0, len(raw))
	for _, item := range raw {
		if cleaned := cleanSlot(item); cleaned != "" {
			slots = append(slots, cleaned)
		}
	}
	return slots
}

// cleanSlot оставляет только цифры и разделители времени.
func cleanSlot(raw string) string {
	s := dashReplacer.Replace(strings.TrimSpace(raw))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ':', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	return strings.TrimSuffix(s, ",")
}

func findUpdated(doc *goquery.Document) *string {
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	m := updatedPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	updated := m[1]
	return &updated
}
