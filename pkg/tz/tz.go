package tz

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Seoul is the Asia/Seoul location (KST, UTC+9, no DST).
var Seoul *time.Location

func init() {
	var err error
	Seoul, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic("tz: load Asia/Seoul: " + err.Error())
	}
}

var weekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// StartOfDay returns midnight of t's calendar day in Seoul.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(Seoul).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Seoul)
}

// DaysBetween counts Seoul calendar days from `from` to `to`. It is negative
// when `to` falls on an earlier day.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.In(Seoul).Date()
	ty, tm, td := to.In(Seoul).Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// DayRange returns [start, end) of the Seoul day `offset` days after t's day.
func DayRange(t time.Time, offset int) (time.Time, time.Time) {
	start := StartOfDay(t).AddDate(0, 0, offset)
	return start, start.AddDate(0, 0, 1)
}

// FormatKorean renders t as "2026년 10월 14일 (수) 19:30" in Seoul time.
func FormatKorean(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	k := t.In(Seoul)
	return fmt.Sprintf("%d년 %d월 %d일 (%s) %02d:%02d",
		k.Year(), int(k.Month()), k.Day(), weekdays[k.Weekday()], k.Hour(), k.Minute())
}
