package plan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/kbukum/seqkit/errors"
)

// Formats lists the plan file formats, in lookup order.
var Formats = []string{"yaml", "yml", "toml", "json"}

// Loader loads plan definitions by name.
type Loader interface {
	Load(name string) (*Plan, error)
}

// FileLoader loads plans from files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories for
// {name}.yaml, {name}.yml, {name}.toml and {name}.json.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first plan file found for name.
func (l *FileLoader) Load(name string) (*Plan, error) {
	for _, dir := range l.dirs {
		for _, ext := range Formats {
			path := filepath.Join(dir, name+"."+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return Load(path)
		}
	}
	return nil, errors.NotFound("plan", name).WithDetail("dirs", l.dirs)
}

// Load reads a plan file. The format follows the file extension.
func Load(path string) (*Plan, error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if !isFormat(format) {
		return nil, errors.InvalidPlan(fmt.Sprintf("unsupported plan file extension %q", filepath.Ext(path)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("plan file", path)
		}
		return nil, errors.Internal(fmt.Errorf("reading plan %s: %w", path, err))
	}

	p, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	p.setPath(path)
	return p, nil
}

// Parse decodes a plan from data in the given format (yaml, yml, toml or
// json). The plan is not validated.
func Parse(data []byte, format string) (*Plan, error) {
	if !isFormat(format) {
		return nil, errors.InvalidPlan(fmt.Sprintf("unsupported plan format %q", format))
	}

	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.InvalidPlan("plan could not be parsed").WithCause(err)
	}

	var p Plan
	if err := v.Unmarshal(&p); err != nil {
		return nil, errors.InvalidPlan("plan could not be decoded").WithCause(err)
	}
	return &p, nil
}

func isFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}
