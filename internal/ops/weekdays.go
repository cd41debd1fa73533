package ops

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	datesInput  = "dates.txt"
	datesOutput = "dates-wednesdays.txt"
)

// dateLayouts are tried in order before the free-form fallback.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2-Jan-2006",
	"2-January-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// countWeekday counts lines of data falling on day. Blank lines are skipped;
// unparseable ones are counted separately.
func countWeekday(data []byte, day time.Weekday) (count, failed int) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		t, ok := parseDate(line)
		if !ok {
			failed++
			slog.Debug("count_weekdays: unparseable date", "value", line)
			continue
		}
		if t.Weekday() == day {
			count++
		}
	}
	return count, failed
}

// CountWednesdays writes the number of Wednesdays listed in dates.txt.
func (h *Handlers) CountWednesdays(ctx context.Context) (*tasks.Result, error) {
	data, err := h.Root.ReadFile(datesInput)
	if err != nil {
		return nil, err
	}

	count, failed := countWeekday(data, time.Wednesday)
	if err := h.Root.WriteFileAtomic(datesOutput, []byte(strconv.Itoa(count))); err != nil {
		return nil, err
	}

	return tasks.Success("%s count written to %s", time.Wednesday, h.Root.External(datesOutput)).
		With("count", count).
		With("failed_parses", failed), nil
}
