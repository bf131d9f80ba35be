package domain

// Level is a logcat severity level. Levels are ordered: Verbose is the
// lowest, Silent the highest.
type Level int

const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelSilent
)

// levelLetters maps Level ordinals to the single-letter form logcat prints.
var levelLetters = [...]string{"V", "D", "I", "W", "E", "F", "S"}

// ParseLevel maps a logcat level letter to a Level. The second return is
// false for letters outside V/D/I/W/E/F/S.
func ParseLevel(letter string) (Level, bool) {
	for i, l := range levelLetters {
		if l == letter {
			return Level(i), true
		}
	}
	return LevelDebug, false
}

// Letter returns the single-letter logcat form of the level.
func (l Level) Letter() string {
	if l < LevelVerbose || l > LevelSilent {
		return "?"
	}
	return levelLetters[l]
}

// String returns the long name of the level.
func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	case LevelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// Record is one parsed logcat line. Records are immutable once created; the
// session controller owns them and hands copies to consumers.
//
// Seq is assigned at parse time, strictly increases in arrival order and is
// never reused within a session, even after the record is evicted from a
// buffer. It identifies a record for selection and copy independent of
// buffer position.
type Record struct {
	Raw     string `json:"raw"`
	Time    string `json:"time"`
	PID     int    `json:"pid"`
	TID     int    `json:"tid"`
	Level   Level  `json:"level"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
	Seq     uint64 `json:"seq"`
}
