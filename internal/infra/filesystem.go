package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// WorkDir expands base, joins path to it and makes sure the directory exists.
func WorkDir(base string, path ...string) (string, error) {
	dir, err := homedir.Expand(filepath.Join(append([]string{base}, path...)...))
	if err != nil {
		return "", errors.Wrap(err, "expand work dir")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrap(err, "create work dir")
	}
	log.WithField("object", "infra").WithField("dir", dir).Trace("work dir ready")
	return dir, nil
}
