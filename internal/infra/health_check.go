package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultCheckExecInterval = 5 * time.Second

// MonitorExecutable signals once when the running binary is replaced on disk.
// The channel is closed when monitoring stops.
func MonitorExecutable(ctx context.Context, interval time.Duration) <-chan struct{} {
	ch := make(chan struct{}, 1)
	entry := log.WithField("object", "MonitorExecutable")

	exeFilename, err := os.Executable()
	if err != nil {
		entry.WithField("error", err.Error()).Warn("cant resolve executable path")
		close(ch)
		return ch
	}
	return monitorFile(ctx, exeFilename, interval, ch)
}

func monitorFile(ctx context.Context, filename string, interval time.Duration, ch chan struct{}) <-chan struct{} {
	entry := log.WithFields(log.Fields{"object": "MonitorExecutable", "file": filename})
	stat, err := os.Stat(filename)
	if err != nil {
		entry.WithField("error", err.Error()).Warn("cant stat executable")
		close(ch)
		return ch
	}
	originalTime := stat.ModTime()

	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(filename)
				if err != nil {
					entry.WithField("error", err.Error()).Debug("cant stat executable on tick")
					continue
				}
				if !originalTime.Equal(stat.ModTime()) {
					entry.Info("executable changed")
					ch <- struct{}{}
					return
				}
			}
		}
	}()
	return ch
}
