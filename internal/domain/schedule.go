package domain

// ScheduleRecord — нормализованный график отключений, снятый со страницы источника.
// Значение неизменяемо: конструктор копирует срезы, а вызывающий код их не модифицирует.
type ScheduleRecord struct {
	Date              string
	CurrentQueueSlots []string
	NextDate          string
	NextQueueSlots    []string
	UpdatedTime       *string
}

// NewScheduleRecord собирает запись, копируя входные срезы.
func NewScheduleRecord(date string, current []string, nextDate string, next []string, updated *string) ScheduleRecord {
	rec := ScheduleRecord{
		Date:              date,
		CurrentQueueSlots: append([]string{}, current...),
		NextDate:          nextDate,
		NextQueueSlots:    append([]string{}, next...),
	}
	if updated != nil {
		v := *updated
		rec.UpdatedTime = &v
	}
	return rec
}

// Updated возвращает отметку «Оновлено» и признак её наличия.
func (r ScheduleRecord) Updated() (string, bool) {
	if r.UpdatedTime == nil {
		return "", false
	}
	return *r.UpdatedTime, true
}
