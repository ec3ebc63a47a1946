package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout       = "2006-01-02"
	DateTimeLayout   = "2006-01-02 15:04:05"
	DateMinuteLayout = "2006-01-02 15:04"
)

// ParseDate разбирает YYYY-MM-DD в зоне loc. Пустая строка: nil без ошибки.
func ParseDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("неверный формат даты %q, ожидается ГГГГ-ММ-ДД", s)
	}
	return &t, nil
}

// ParseEndDate возвращает исключающую границу: начало следующего дня после s.
func ParseEndDate(s string, loc *time.Location) (*time.Time, error) {
	t, err := ParseDate(s, loc)
	if err != nil || t == nil {
		return t, err
	}
	next := t.AddDate(0, 0, 1)
	return &next, nil
}

func ParseMinute(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateMinuteLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("неверный формат времени %q, ожидается ГГГГ-ММ-ДД ЧЧ:мм", s)
	}
	return &t, nil
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
