package core

import "time"

// NextOccurrence returns the occurrence date following d for the given
// frequency. Pure and deterministic; the recurring engine only ever feeds it
// the template's previous nextOccurrence, never "today".
//
// Month, quarter and year steps clamp on overflow: when the source day does
// not exist in the target month the result lands on that month's last day,
// and later steps continue from the clamped day (Jan 31 -> Feb 29 -> Mar 29).
// The anchor day is not remembered across steps.
func NextOccurrence(d Date, freq RecurringFrequency) (Date, error) {
	switch freq {
	case Daily:
		return Date{Time: d.AddDate(0, 0, 1)}, nil
	case Weekly:
		return Date{Time: d.AddDate(0, 0, 7)}, nil
	case Biweekly:
		return Date{Time: d.AddDate(0, 0, 14)}, nil
	case Monthly:
		return addMonthsClamped(d, 1), nil
	case Quarterly:
		return addMonthsClamped(d, 3), nil
	case Yearly:
		return addMonthsClamped(d, 12), nil
	default:
		return Date{}, ErrInvalidFrequency
	}
}

// addMonthsClamped adds n calendar months, clamping the day to the target
// month's length instead of letting it roll over (time.AddDate would turn
// Jan 31 + 1 month into Mar 2/3).
func addMonthsClamped(d Date, n int) Date {
	year, month, day := d.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := lastDayOfMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
