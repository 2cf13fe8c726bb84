package wikitext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// #time, #timel and #dateformat. The format string follows PHP
// date(): each letter selects a field, backslash escapes a letter, and
// double-quoted runs are literal text.

const mediawikiTimestampLayout = "20060102150405"

func timeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return formatTimeFn(p, fnName, args, expander, time.UTC)
}

func timelFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return formatTimeFn(p, fnName, args, expander, time.Local)
}

func formatTimeFn(p *Processor, fnName string, args []string, expander func(string) string, loc *time.Location) string {
	format := strings.TrimSpace(expander(arg(args, 0)))
	dt := strings.TrimSpace(expander(arg(args, 1)))
	// language and local-time arguments are accepted but only UTC or
	// the process zone are supported
	t, ok := parseTimestamp(dt, loc)
	if !ok {
		p.Warning(fmt.Sprintf("unrecognized timestamp %q in %s", dt, fnName), "parserfns/time")
		return fmt.Sprintf(`<strong class="error">Bad time syntax: %s</strong>`, dt)
	}
	return formatWikiTime(format, t)
}

var relativeTimeRe = regexp.MustCompile(`^([+-])\s*(\d+)\s*(second|minute|hour|day|week|month|year)s?$`)

// parseTimestamp understands "now", unix "@" timestamps, MediaWiki
// 14-digit timestamps, common ISO 8601 forms, and simple relative
// offsets like "+12 hours".
func parseTimestamp(dt string, loc *time.Location) (time.Time, bool) {
	base := now().In(loc)
	if dt == "" || strings.EqualFold(dt, "now") {
		return base, true
	}
	if strings.HasPrefix(dt, "@") {
		if secs, err := strconv.ParseInt(dt[1:], 10, 64); err == nil {
			return time.Unix(secs, 0).In(loc), true
		}
		return time.Time{}, false
	}
	if m := relativeTimeRe.FindStringSubmatch(strings.ToLower(dt)); m != nil {
		n, _ := strconv.Atoi(m[2])
		if m[1] == "-" {
			n = -n
		}
		switch m[3] {
		case "second":
			return base.Add(time.Duration(n) * time.Second), true
		case "minute":
			return base.Add(time.Duration(n) * time.Minute), true
		case "hour":
			return base.Add(time.Duration(n) * time.Hour), true
		case "day":
			return base.AddDate(0, 0, n), true
		case "week":
			return base.AddDate(0, 0, 7*n), true
		case "month":
			return base.AddDate(0, n, 0), true
		case "year":
			return base.AddDate(n, 0, 0), true
		}
	}
	layouts := []string{
		mediawikiTimestampLayout,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"02 January 2006",
		"2 January 2006",
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"January 2006",
		"2006",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).
		AddDate(0, 1, -1).Day()
}

// formatWikiTime renders t according to a PHP date() style format
// string.
func formatWikiTime(format string, t time.Time) string {
	var sb strings.Builder
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '\\':
			if i+1 < len(runes) {
				i++
				sb.WriteRune(runes[i])
			}
			continue
		case '"':
			j := i + 1
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			if j < len(runes) {
				sb.WriteString(string(runes[i+1 : j]))
				i = j
			} else {
				sb.WriteRune(c)
			}
			continue
		case 'x':
			// xg selects the genitive month name, identical to F here
			if i+1 < len(runes) && runes[i+1] == 'g' {
				i++
				sb.WriteString(t.Format("January"))
				continue
			}
			sb.WriteRune(c)
			continue
		}
		switch c {
		case 'Y':
			sb.WriteString(strconv.Itoa(t.Year()))
		case 'y':
			sb.WriteString(t.Format("06"))
		case 'L':
			if isLeapYear(t.Year()) {
				sb.WriteString("1")
			} else {
				sb.WriteString("0")
			}
		case 'o':
			year, _ := t.ISOWeek()
			sb.WriteString(strconv.Itoa(year))
		case 'n':
			sb.WriteString(strconv.Itoa(int(t.Month())))
		case 'm':
			sb.WriteString(t.Format("01"))
		case 'M':
			sb.WriteString(t.Format("Jan"))
		case 'F':
			sb.WriteString(t.Format("January"))
		case 'j':
			sb.WriteString(strconv.Itoa(t.Day()))
		case 'd':
			sb.WriteString(t.Format("02"))
		case 'z':
			sb.WriteString(strconv.Itoa(t.YearDay() - 1))
		case 'W':
			_, week := t.ISOWeek()
			fmt.Fprintf(&sb, "%02d", week)
		case 'N':
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			sb.WriteString(strconv.Itoa(wd))
		case 'w':
			sb.WriteString(strconv.Itoa(int(t.Weekday())))
		case 'D':
			sb.WriteString(t.Format("Mon"))
		case 'l':
			sb.WriteString(t.Format("Monday"))
		case 'a':
			sb.WriteString(strings.ToLower(t.Format("PM")))
		case 'A':
			sb.WriteString(t.Format("PM"))
		case 'g':
			sb.WriteString(strconv.Itoa(hour12(t)))
		case 'h':
			fmt.Fprintf(&sb, "%02d", hour12(t))
		case 'G':
			sb.WriteString(strconv.Itoa(t.Hour()))
		case 'H':
			sb.WriteString(t.Format("15"))
		case 'i':
			sb.WriteString(t.Format("04"))
		case 's':
			sb.WriteString(t.Format("05"))
		case 'U':
			sb.WriteString(strconv.FormatInt(t.Unix(), 10))
		case 'e', 'T':
			sb.WriteString(t.Format("MST"))
		case 'I':
			sb.WriteString("0")
		case 'P':
			sb.WriteString(t.Format("-07:00"))
		case 'O':
			sb.WriteString(t.Format("-0700"))
		case 'Z':
			_, offset := t.Zone()
			sb.WriteString(strconv.Itoa(offset))
		case 't':
			sb.WriteString(strconv.Itoa(daysInMonth(t)))
		case 'c':
			sb.WriteString(t.Format("2006-01-02T15:04:05-07:00"))
		case 'r':
			sb.WriteString(t.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return h
}

var yearDigitsRe = regexp.MustCompile(`\d{3,}`)

// placeholderYear marks a date that came in without a year so the year
// can be stripped back out after formatting.
const placeholderYear = 3333

// dateformatFn normalizes a date to one of the mdy, dmy, ymd, or
// ISO 8601 presentations.
func dateformatFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := expander(arg(args, 0))
	dt := strings.TrimSpace(arg0)
	hadYear := yearDigitsRe.MatchString(dt)
	if !hadYear {
		dt += " " + strconv.Itoa(placeholderYear)
	}
	t, ok := parseTimestamp(dt, time.UTC)
	if !ok {
		p.Warning(fmt.Sprintf("unrecognized date %q in %s", arg0, fnName), "parserfns/dateformat")
		return arg0
	}
	format := "ISO 8601"
	if len(args) >= 2 {
		format = strings.TrimSpace(expander(args[1]))
	}
	var out string
	switch format {
	case "mdy":
		out = t.Format("January 2, 2006")
	case "dmy":
		out = t.Format("2 January 2006")
	case "ymd":
		out = t.Format("2006 January 2")
	case "ISO 8601", "ISO8601", "iso 8601", "none", "":
		out = t.Format("2006-01-02")
	default:
		p.Warning(fmt.Sprintf("unrecognized format %q in %s", format, fnName), "parserfns/dateformat")
		out = t.Format("2006-01-02")
	}
	if !hadYear {
		out = strings.Trim(strings.ReplaceAll(out, strconv.Itoa(placeholderYear), ""), " ,-")
	}
	return out
}
