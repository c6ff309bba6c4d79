package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f and restarts it in a new goroutine after a panic.
// maxPanics limits the restarts, a negative value means unlimited.
// onExhausted runs once the limit is spent, it defaults to log.Fatal.
func GoRecoverable(maxPanics int, id string, f func(), onExhausted ...func()) {
	entry := log.WithFields(log.Fields{"object": "GoRecoverable", "job": id})
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		entry.Errorf("job panics with message: %v, %s", err, identifyPanic())
		if maxPanics == 0 {
			if len(onExhausted) > 0 && onExhausted[0] != nil {
				onExhausted[0]()
				return
			}
			entry.Fatal("panics limit exceeded, exiting")
		}
		if maxPanics > 0 {
			maxPanics--
		}
		entry.WithField("panics_left", maxPanics).Debug("recovering job")
		go GoRecoverable(maxPanics, id, f, onExhausted...)
	}()
	f()
}

func identifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(3, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}
	return fmt.Sprintf("pc:%x", pc)
}
