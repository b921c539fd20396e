package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/log"
)

// files larger than this are rejected
const maxFileSize = 1 << 20

// Option configures Load.
type Option func(*loader)

type loader struct {
	logger log.Logger
}

// WithLogger sets logger for load and apply problems.
func WithLogger(l log.Logger) Option {
	return func(ld *loader) {
		ld.logger = l
	}
}

// ReadFile returns contents of a file up to the size limit. Leading ~ is
// expanded to the home directory.
func ReadFile(path string) (string, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return "", err
	}
	if len(b) > maxFileSize {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, path)
	}
	return string(b), nil
}

// Read parses the file at path. Relative generator paths are resolved
// against the directory of the file.
func Read(path string) (*File, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, Errors{&Error{Err: fmt.Errorf("%w: %v", ErrRead, err)}}
	}
	text, err := ReadFile(path)
	if err != nil {
		return nil, Errors{&Error{Err: fmt.Errorf("%w: %v", ErrRead, err)}}
	}
	dir := filepath.Dir(path)
	return Parse(text, func(src string) (string, error) {
		src, err := homedir.Expand(src)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(src) {
			src = filepath.Join(dir, src)
		}
		return ReadFile(src)
	})
}

// Load reads the file at path and queues it to replace the pipeline of p.
// Generator types are registered in r. When any problem is found the
// process is left untouched and Errors is returned.
func Load(path string, p *bzzt.Process, r *generator.Registry, options ...Option) error {
	ld := loader{logger: log.Silent()}
	for _, option := range options {
		option(&ld)
	}

	f, err := Read(path)
	if err != nil {
		ld.logger.Warn(fmt.Sprintf("config %s: %v", path, err))
		return err
	}
	plan, err := Prepare(f, r)
	if err != nil {
		ld.logger.Warn(fmt.Sprintf("config %s: %v", path, err))
		return err
	}
	if err := plan.Register(); err != nil {
		ld.logger.Warn(fmt.Sprintf("config %s: %v", path, err))
		return err
	}

	p.Configure(func(c *bzzt.Configurer) {
		if err := plan.Apply(c); err != nil {
			ld.logger.Error(fmt.Sprintf("config %s: %v", path, err))
		}
	}, nil)
	ld.logger.Info(fmt.Sprintf("config %s: queued %d steps", path, plan.Len()))
	return nil
}
