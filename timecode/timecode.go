// Package timecode converts between subtitle timestamps and durations.
//
// SRT writes milliseconds after a comma (00:01:02,345) and WebVTT after a
// period (00:01:02.345). Parse accepts either form.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Parse parses HH:MM:SS,mmm, HH:MM:SS.mmm or MM:SS.mmm into a duration.
// Fractions longer than three digits are truncated, shorter ones padded.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid timecode %q", s)
	}

	hours := 0
	if len(parts) == 3 {
		h, err := strconv.Atoi(parts[0])
		if err != nil || h < 0 {
			return 0, fmt.Errorf("invalid hours in timecode %q", s)
		}
		hours = h
		parts = parts[1:]
	}

	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes < 0 || minutes >= 60 {
		return 0, fmt.Errorf("invalid minutes in timecode %q", s)
	}

	secStr, msStr := parts[1], ""
	if i := strings.IndexAny(secStr, ",."); i >= 0 {
		secStr, msStr = secStr[:i], secStr[i+1:]
	}
	seconds, err := strconv.Atoi(secStr)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("invalid seconds in timecode %q", s)
	}

	millis := 0
	if msStr != "" {
		if len(msStr) > 3 {
			msStr = msStr[:3]
		}
		for len(msStr) < 3 {
			msStr += "0"
		}
		millis, err = strconv.Atoi(msStr)
		if err != nil || millis < 0 {
			return 0, fmt.Errorf("invalid milliseconds in timecode %q", s)
		}
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// ParseClock parses MM:SS (or HH:MM:SS) without a fractional part, the
// form used for trim points on the command line.
func ParseClock(s string) (time.Duration, error) {
	if strings.ContainsAny(s, ",.") {
		return 0, fmt.Errorf("clock %q must not have a fraction", s)
	}
	return Parse(s)
}

// FormatSRT formats d as HH:MM:SS,mmm.
func FormatSRT(d time.Duration) string {
	return format(d, ',')
}

// FormatVTT formats d as HH:MM:SS.mmm.
func FormatVTT(d time.Duration) string {
	return format(d, '.')
}

func format(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}

// Seconds reports d in floating point seconds.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// FromSeconds converts seconds to a duration rounded to the millisecond.
func FromSeconds(f float64) time.Duration {
	return time.Duration(math.Round(f*1000)) * time.Millisecond
}
