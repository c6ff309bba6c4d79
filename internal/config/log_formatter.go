package config

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	colorRed         = 31
	colorGreen       = 32
	colorYellow      = 33
	colorBlue        = 36
	colorGray        = 37
	colorLightGreen  = 92
	colorLightYellow = 93
	colorCyan        = 96
)

// LogFormatter renders logrus entries as colored key=value lines, fields sorted by key.
type LogFormatter struct {
	NoColor    bool
	WithSource bool
}

func (f *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	levelColor := colorBlue
	switch entry.Level {
	case log.DebugLevel, log.TraceLevel:
		levelColor = colorGray
	case log.WarnLevel:
		levelColor = colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		levelColor = colorRed
	}

	var b strings.Builder
	b.WriteString(f.pair("level", f.paint(levelColor, strings.ToUpper(entry.Level.String())[:4])))
	b.WriteString(" " + f.pair("ts", f.paint(colorLightYellow, entry.Time.Format("2006-01-02 15:04:05.000"))))

	if f.WithSource {
		if _, file, line, ok := runtime.Caller(6); ok {
			b.WriteString(" " + f.pair("source", f.paint(colorLightYellow, fmt.Sprintf("%s:%d", file, line))))
		}
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m, err := json.Marshal(entry.Data[k])
		if err != nil || len(m) == 0 {
			continue
		}
		s := string(m)
		valueColor := colorCyan
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			valueColor = colorGreen
		} else if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
			valueColor = colorLightYellow
		}
		b.WriteString(" " + f.pair(k, f.paint(valueColor, s)))
	}
	b.WriteString(" " + f.pair("msg", f.paint(colorLightGreen, strconv.Quote(entry.Message))))

	output := strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(b.String())
	return []byte(output + "\n"), nil
}

func (f *LogFormatter) pair(key, value string) string {
	return f.paint(colorCyan, key) + "=" + value
}

func (f *LogFormatter) paint(color int, s string) string {
	if f.NoColor {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}
