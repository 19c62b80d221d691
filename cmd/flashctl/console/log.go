package console

import (
	"fmt"
	"io"
	"os"
)

const (
	PictoChip   = "💾"
	PictoFinish = "🏁"
	PictoStop   = "🚫"
	PictoBroom  = "🧹"
	PictoPencil = "✏️"
	PictoSleep  = "💤"
)

var writer io.Writer = os.Stdout
var errWriter io.Writer = os.Stderr

func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Output() io.Writer {
	return writer
}

func Format(err error) string {
	return fmt.Sprintf("%s: %s\n", Red("ERROR"), err.Error())
}

func Errorf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Infof(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", White("..."), fmt.Sprintf(msg, args...))
}

func PInfof(picto, msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

func Print(msg string) {
	_, _ = fmt.Fprintln(writer, msg)
}

func Printf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}

// Dump prints buf 16 bytes per line, each line prefixed with its flash
// address starting at base.
func Dump(base uint32, buf []byte) {
	for off := 0; off < len(buf); off += 16 {
		line := buf[off:min(off+16, len(buf))]
		ascii := make([]byte, len(line))
		for i, b := range line {
			ascii[i] = '.'
			if b >= 0x20 && b < 0x7F {
				ascii[i] = b
			}
		}
		_, _ = fmt.Fprintf(writer, "%s  %-47s  |%s|\n", Cyan(fmt.Sprintf("%06X", base+uint32(off))), fmt.Sprintf("% X", line), ascii)
	}
}
