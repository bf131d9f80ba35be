// Package logcat implements the line parser, the filter engine and the
// bounded record buffer for `adb logcat -v threadtime` output.
package logcat

import (
	"regexp"
	"strconv"

	"github.com/loglens/loglens/internal/domain"
)

// threadtimeRe recognizes the threadtime format:
//
//	MM-DD HH:MM:SS.mmm  PID   TID LEVEL Tag: Message
//
// The tag is matched lazily so a message beginning with a colon does not
// truncate it early.
var threadtimeRe = regexp.MustCompile(`^(\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d{3})\s+(\d+)\s+(\d+)\s+([VDIWEFS])\s+(\S+?):\s*(.*)$`)

// Parse parses one logcat line into a Record with the given sequence index.
// Lines that do not match the threadtime shape (continuation lines, stack
// trace frames, banner lines) return false. Multi-line entries are not
// reconstructed; every physical line is evaluated independently.
func Parse(line string, seq uint64) (domain.Record, bool) {
	m := threadtimeRe.FindStringSubmatch(line)
	if m == nil {
		return domain.Record{}, false
	}

	pid, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.Record{}, false
	}
	tid, err := strconv.Atoi(m[3])
	if err != nil {
		return domain.Record{}, false
	}

	level, ok := domain.ParseLevel(m[4])
	if !ok {
		level = domain.LevelDebug
	}

	return domain.Record{
		Raw:     line,
		Time:    m[1],
		PID:     pid,
		TID:     tid,
		Level:   level,
		Tag:     m[5],
		Message: m[6],
		Seq:     seq,
	}, true
}

// ParseMany parses a batch of lines, assigning startSeq+i to the line at
// position i and dropping lines that do not parse. Sequence indices in the
// result strictly increase but are not contiguous across dropped lines; the
// caller is expected to advance its counter by len(lines).
func ParseMany(lines []string, startSeq uint64) []domain.Record {
	records := make([]domain.Record, 0, len(lines))
	for i, line := range lines {
		if rec, ok := Parse(line, startSeq+uint64(i)); ok {
			records = append(records, rec)
		}
	}
	return records
}
