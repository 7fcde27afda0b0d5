package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/charm/classpath"
	charmerrors "github.com/wippyai/charm/errors"
)

// loader resolves command arguments to class file bytes. The classpath is
// opened on first use.
type loader struct {
	cp      *classpath.ClassPath
	entries []string
}

func (a *app) loader() *loader {
	return &loader{entries: classpath.Split(a.v.GetString("classpath"))}
}

// isFileArg reports whether arg names a class file rather than a class.
func isFileArg(arg string) bool {
	if strings.HasSuffix(arg, ".class") {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.Mode().IsRegular()
}

func (l *loader) load(arg string) ([]byte, error) {
	if isFileArg(arg) {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, charmerrors.Wrap(charmerrors.PhaseLoad, charmerrors.KindInvalidInput, err, "read "+arg)
		}
		return data, nil
	}
	if l.cp == nil {
		cp, err := classpath.New(l.entries...)
		if err != nil {
			return nil, err
		}
		l.cp = cp
	}
	res, err := l.cp.Find(arg)
	if err != nil {
		return nil, err
	}
	return res.Bytes()
}

func (l *loader) close() error {
	if l.cp == nil {
		return nil
	}
	return l.cp.Close()
}

// each loads every argument in order and hands its bytes to fn. A failing
// argument is reported with its name and does not stop the others.
func (a *app) each(args []string, fn func(arg string, data []byte) error) error {
	l := a.loader()
	var errs error
	for _, arg := range args {
		data, err := l.load(arg)
		if err == nil {
			err = fn(arg, data)
		}
		if err != nil {
			a.log.Debug("input failed", zap.String("input", arg), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", arg, err))
		}
	}
	return multierr.Append(errs, l.close())
}
