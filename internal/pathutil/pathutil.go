// Package pathutil manages application file paths and locations
package pathutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"go.uber.org/multierr"
)

// EnvSuffix names the environment variable that keeps the files of separate
// instances apart.
const EnvSuffix = "RESPITE_ENV"

// Paths holds all application path configurations.
type Paths struct {
	dir            string
	configFileName string
	dbFileName     string
	stateFileName  string
	statusFileName string
	logFileName    string

	// Computed absolute paths
	configFilePath string
	dbFilePath     string
	stateFilePath  string
	statusFilePath string
	logFilePath    string
}

var (
	paths   *Paths
	once    sync.Once
	initErr error
)

// Initialize must be called once at program startup.
func Initialize() error {
	once.Do(func() {
		p := newPaths(os.Getenv(EnvSuffix))
		initErr = p.computePaths()
		paths = p
	})

	return initErr
}

func newPaths(env string) *Paths {
	p := &Paths{
		dir:            "respite",
		configFileName: "config.yml",
		dbFileName:     "respite.db",
		stateFileName:  "state",
		statusFileName: "status.json",
		logFileName:    "respite.log",
	}

	if env = strings.TrimSpace(env); env != "" {
		p.configFileName = fmt.Sprintf("config_%s.yml", env)
		p.dbFileName = fmt.Sprintf("respite_%s.db", env)
		p.stateFileName = fmt.Sprintf("state_%s", env)
		p.statusFileName = fmt.Sprintf("status_%s.json", env)
		p.logFileName = fmt.Sprintf("respite_%s.log", env)
	}

	return p
}

// Must panics if paths haven't been initialized.
func Must() *Paths {
	if paths == nil {
		panic("pathutil.Initialize() must be called before accessing paths")
	}

	return paths
}

func Dir() string {
	return Must().dir
}

func ConfigFilePath() string {
	return Must().configFilePath
}

func DBFilePath() string {
	return Must().dbFilePath
}

// StateFilePath is where the timer snapshot is kept between runs.
func StateFilePath() string {
	return Must().stateFilePath
}

func StatusFilePath() string {
	return Must().statusFilePath
}

func LogFilePath() string {
	return Must().logFilePath
}

func (p *Paths) computePaths() error {
	var err error

	// xdg creates the parent directories of each file
	p.configFilePath, err = xdg.ConfigFile(filepath.Join(p.dir, p.configFileName))
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	p.dbFilePath, err = xdg.DataFile(filepath.Join(p.dir, p.dbFileName))
	if err != nil {
		return fmt.Errorf("resolving data path: %w", err)
	}

	p.stateFilePath, err = xdg.StateFile(filepath.Join(p.dir, p.stateFileName))
	if err != nil {
		return fmt.Errorf("resolving state path: %w", err)
	}

	stateDir := filepath.Dir(p.stateFilePath)

	p.statusFilePath = filepath.Join(stateDir, p.statusFileName)
	p.logFilePath = filepath.Join(stateDir, "log", p.logFileName)

	return nil
}

// WriteFileAtomic writes a temporary file next to path with write and
// renames it into place. The directory is created if needed.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	err = write(f)
	err = multierr.Append(err, f.Close())

	if err == nil {
		err = os.Rename(tmpPath, path)
	}

	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}
