package report

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Dutch)

// FormatNumber formats v with Dutch separators and prec fraction digits.
// A negative prec keeps up to three fraction digits and drops trailing zeros.
func FormatNumber(v float64, prec int) string {
	if prec < 0 {
		return printer.Sprint(number.Decimal(v))
	}
	return printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(prec),
		number.MaxFractionDigits(prec),
	))
}

var dutchMonths = [...]string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

// FormatDate formats a date as "2 januari 2006". Plain fmt keeps the year
// free of group separators.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), dutchMonths[t.Month()-1], t.Year())
}

// FormatDateTime formats a date with the 24h clock.
func FormatDateTime(t time.Time) string {
	return FormatDate(t) + " om " + t.Format("15:04")
}
