package admin

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/session"
)

// padTimes, padLeft/padRight/padCenter are adapted from the teacher's
// console.PadLeft/PadRight/PadCenter (rewritten for this package's own
// fixed column widths rather than taken verbatim).
func padTimes(pad string, n int) string {
	if n <= 0 || pad == "" {
		return ""
	}
	out := make([]byte, 0, n*len(pad))
	for i := 0; i < n; i++ {
		out = append(out, pad...)
	}
	return string(out)
}

func padRight(str string, width int) string {
	return str + padTimes(" ", width-utf8.RuneCountInString(str))
}

func padCenter(str string, width int) string {
	n := width - utf8.RuneCountInString(str)
	left := int(math.Floor(float64(n) / 2))
	right := n - left
	return padTimes(" ", left) + str + padTimes(" ", right)
}

var clientColumns = []struct {
	title string
	width int
}{
	{"SESSION", 9}, {"STATE", 14}, {"REMOTE", 22}, {"NAME", 16}, {"JOBS", 6}, {"IDLE", 10},
}

var clientDetailedColumns = append(append([]struct {
	title string
	width int
}{}, clientColumns...), struct {
	title string
	width int
}{"VERSION", 12})

// renderClients formats sessions as a fixed-width text table, one row
// per session plus a header row, for AdminTextTable. detailed appends a
// VERSION column (Session.ClientVersion) per spec.md's "ListClients
// detailed" variant.
func renderClients(sessions []session.Snapshot, now int64, detailed bool) []string {
	columns := clientColumns
	if detailed {
		columns = clientDetailedColumns
	}

	rows := make([]string, 0, len(sessions)+1)
	rows = append(rows, headerRow(columns))
	for _, s := range sessions {
		idle := fmt.Sprintf("%ds", now-s.LastActivity.Unix())
		row := fmt.Sprintf("%s %s %s %s %s %s",
			padRight(fmt.Sprintf("%d", s.ID), columns[0].width),
			padRight(string(s.State), columns[1].width),
			padRight(s.RemoteAddr, columns[2].width),
			padRight(s.Name, columns[3].width),
			padRight(fmt.Sprintf("%d", s.ActiveJobCount), columns[4].width),
			padRight(idle, columns[5].width))
		if detailed {
			row += " " + padRight(s.ClientVersion, columns[6].width)
		}
		rows = append(rows, row)
	}
	return rows
}

var jobColumns = []struct {
	title string
	width int
}{
	{"JOB", 8}, {"OWNER", 9}, {"LANG", 10}, {"STATE", 12}, {"PID", 8}, {"EXIT", 6},
}

// renderJobs formats jobs as a fixed-width text table, one row per job
// plus a header row, for AdminTextTable.
func renderJobs(jobs []queue.Snapshot) []string {
	rows := make([]string, 0, len(jobs)+1)
	rows = append(rows, headerRow(jobColumns))
	for _, j := range jobs {
		rows = append(rows, fmt.Sprintf("%s %s %s %s %s %s",
			padRight(fmt.Sprintf("%d", j.ID), jobColumns[0].width),
			padRight(fmt.Sprintf("%d", j.OwnerSessionID), jobColumns[1].width),
			padRight(j.Language, jobColumns[2].width),
			padRight(string(j.State), jobColumns[3].width),
			padRight(fmt.Sprintf("%d", j.Pid), jobColumns[4].width),
			padRight(fmt.Sprintf("%d", j.ExitCode), jobColumns[5].width)))
	}
	return rows
}

func headerRow(cols []struct {
	title string
	width int
}) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += " "
		}
		out += padCenter(c.title, c.width)
	}
	return out
}

// renderConfig formats a key/value map as a two-column text table, keys
// in the order supplied (callers pass a stable, pre-sorted key list).
func renderConfig(keys []string, values map[string]string) []string {
	rows := make([]string, 0, len(keys)+1)
	rows = append(rows, padRight("KEY", 24)+" VALUE")
	for _, k := range keys {
		rows = append(rows, padRight(k, 24)+" "+values[k])
	}
	return rows
}
