package jet

import (
	"fmt"
	"time"
)

const (
	logTimeBaseYear = 1900
	flagHigh        = 0x80

	// signatureTimeLayout is MM/dd/yyyy HH:mm:ss, independent of any locale.
	signatureTimeLayout = "01/02/2006 15:04:05"
)

// --------------------------------------------------------------------------
// Packed timestamps
// --------------------------------------------------------------------------

// packedTime is the 8 byte calendar layout shared by LogTime and BkLogTime.
// Year holds the year minus 1900. Century has its high bit set when the
// source year is 2000 or later. Flags is the variant specific trailing byte.
type packedTime struct {
	Seconds byte
	Minutes byte
	Hours   byte
	Day     byte
	Month   byte
	Year    byte
	Century byte
	Flags   byte
}

var (
	minPackedTime = time.Date(logTimeBaseYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxPackedTime = time.Date(logTimeBaseYear+255, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// pack decomposes t (converted to UTC) into the packed layout. The zero
// time packs to the zero value. Times outside 1900..2155 do not fit into the
// year byte and are clamped to the first or last representable second.
func pack(t time.Time) packedTime {
	if t.IsZero() {
		return packedTime{}
	}
	t = t.UTC()
	switch {
	case t.Before(minPackedTime):
		t = minPackedTime
	case t.After(maxPackedTime):
		t = maxPackedTime
	}
	p := packedTime{
		Seconds: byte(t.Second()),
		Minutes: byte(t.Minute()),
		Hours:   byte(t.Hour()),
		Day:     byte(t.Day()),
		Month:   byte(t.Month()),
		Year:    byte(t.Year() - logTimeBaseYear),
	}
	if t.Year() >= 2000 {
		p.Century = flagHigh
	}
	return p
}

// IsZero returns true if no timestamp is stored.
func (p packedTime) IsZero() bool {
	return p.Seconds == 0 && p.Minutes == 0 && p.Hours == 0 &&
		p.Day == 0 && p.Month == 0 && p.Year == 0
}

// Time returns the stored timestamp as a UTC time. The zero packed value
// yields the zero time.Time.
func (p packedTime) Time() time.Time {
	if p.IsZero() {
		return time.Time{}
	}
	return time.Date(
		logTimeBaseYear+int(p.Year),
		time.Month(p.Month),
		int(p.Day),
		int(p.Hours),
		int(p.Minutes),
		int(p.Seconds),
		0,
		time.UTC,
	)
}

func (p packedTime) format(tag string) string {
	return fmt.Sprintf("%s(%d:%d:%d:%d:%d:%d:0x%x:0x%x)",
		tag, p.Seconds, p.Minutes, p.Hours, p.Day, p.Month, p.Year, p.Century, p.Flags)
}

// LogTime is a packed calendar timestamp as stored in log and database headers.
type LogTime struct {
	packedTime
}

// NewLogTime packs t into a LogTime. t is converted to UTC first and clamped
// to the years 1900..2155.
func NewLogTime(t time.Time) LogTime {
	return LogTime{packedTime: pack(t)}
}

func (l LogTime) String() string { return l.format("JET_LOGTIME") }

// BkLogTime is a packed timestamp attached to a backup marker. The trailing
// flag byte records whether the mark belongs to a completed backup.
type BkLogTime struct {
	packedTime
}

// NewBkLogTime packs t into a BkLogTime, setting the completed-backup flag
// when completed is true.
func NewBkLogTime(t time.Time, completed bool) BkLogTime {
	p := pack(t)
	if completed {
		p.Flags = flagHigh
	}
	return BkLogTime{packedTime: p}
}

// IsCompleted returns true if the mark belongs to a completed backup.
func (b BkLogTime) IsCompleted() bool { return b.Flags&flagHigh != 0 }

func (b BkLogTime) String() string { return b.format("JET_BKLOGTIME") }

// --------------------------------------------------------------------------
// Signature and backup info
// --------------------------------------------------------------------------

// Signature tags the origin of a database or log stream.
type Signature struct {
	Random       uint32
	CreationTime LogTime
	ComputerName string
}

// NewSignature creates a Signature from its parts.
func NewSignature(random uint32, created time.Time, computerName string) Signature {
	return Signature{
		Random:       random,
		CreationTime: NewLogTime(created),
		ComputerName: computerName,
	}
}

// String renders the creation time as MM/dd/yyyy HH:mm:ss. A signature
// without a creation time renders an empty time field.
func (s Signature) String() string {
	created := ""
	if !s.CreationTime.IsZero() {
		created = s.CreationTime.Time().Format(signatureTimeLayout)
	}
	return fmt.Sprintf("JET_SIGNATURE(%d:%s:%s)", s.Random, created, s.ComputerName)
}

// BkInfo describes the log range and timestamp covered by a backup.
type BkInfo struct {
	LgposMark     Lgpos
	BklogtimeMark BkLogTime
	GenLow        uint32
	GenHigh       uint32
}

func (b BkInfo) String() string {
	return fmt.Sprintf("JET_BKINFO(%d-%d:%s:%s)", b.GenLow, b.GenHigh, b.LgposMark, b.BklogtimeMark)
}
