// Package thaidate renders dates the way the th-TH locale does: Thai weekday and
// month names with the Buddhist-era year.
package thaidate

import (
	"fmt"
	"time"
)

// BuddhistEraOffset is the difference between the Buddhist era and the Gregorian year.
const BuddhistEraOffset = 543

var weekdays = [...]string{
	time.Sunday:    "วันอาทิตย์",
	time.Monday:    "วันจันทร์",
	time.Tuesday:   "วันอังคาร",
	time.Wednesday: "วันพุธ",
	time.Thursday:  "วันพฤหัสบดี",
	time.Friday:    "วันศุกร์",
	time.Saturday:  "วันเสาร์",
}

var months = [...]string{
	time.January:   "มกราคม",
	time.February:  "กุมภาพันธ์",
	time.March:     "มีนาคม",
	time.April:     "เมษายน",
	time.May:       "พฤษภาคม",
	time.June:      "มิถุนายน",
	time.July:      "กรกฎาคม",
	time.August:    "สิงหาคม",
	time.September: "กันยายน",
	time.October:   "ตุลาคม",
	time.November:  "พฤศจิกายน",
	time.December:  "ธันวาคม",
}

// Weekday returns the long weekday name, e.g. "วันศุกร์".
func Weekday(t time.Time) string {
	return weekdays[t.Weekday()]
}

// Month returns the long month name, e.g. "ตุลาคม".
func Month(t time.Time) string {
	return months[t.Month()]
}

// BuddhistYear converts the Gregorian year of t.
func BuddhistYear(t time.Time) int {
	return t.Year() + BuddhistEraOffset
}

// LongDate renders day, long month and short-era year: "16 ตุลาคม พ.ศ. 2569".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d %s พ.ศ. %d", t.Day(), Month(t), BuddhistYear(t))
}

// BirthLine renders the confirmation sentence "เกิดวันศุกร์ที่ 16 ตุลาคม พ.ศ. 2569".
func BirthLine(t time.Time) string {
	return fmt.Sprintf("เกิด%sที่ %s", Weekday(t), LongDate(t))
}
