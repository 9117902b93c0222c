// clock отделяет бизнес-логику от системного времени.
package clock

import "time"

// Clock возвращает текущее время.
type Clock interface {
	Now() time.Time
}

// Real — системные часы в UTC.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Func адаптирует функцию к Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Fixed возвращает часы, всегда показывающие t.
func Fixed(t time.Time) Clock {
	t = t.UTC()
	return Func(func() time.Time { return t })
}
