// ABOUTME: Launch strategies for the embedding worker process
// ABOUTME: Tries the bundled runtime first, then system interpreters on PATH
package worker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/harper/facultymatch/internal/errs"
)

// Remediation is appended to the launch failure summary.
const Remediation = "Reinstall the application to restore the bundled runtime or install Python with the 'torch' and 'transformers' packages."

// DefaultInterpreters are tried on PATH after the bundled runtime.
var DefaultInterpreters = []string{"python3", "python"}

// baseEnv is set on every worker process.
var baseEnv = []string{
	"HF_HUB_DISABLE_PROGRESS_BARS=1",
	"TOKENIZERS_PARALLELISM=false",
	"PYTHONUTF8=1",
	"PYTHONUNBUFFERED=1",
}

// Strategy is one way of starting the worker.
type Strategy struct {
	Name    string
	Path    string
	Args    []string
	Env     []string
	Bundled bool

	// Unavailable skips the strategy with this explanation.
	Unavailable string
	// Broken aborts launching with this explanation.
	Broken string
}

// DefaultStrategies returns the bundled runtime strategy followed by one
// strategy per system interpreter, all running the embedded Script.
func DefaultStrategies(resourceDir string, interpreters []string) []Strategy {
	if len(interpreters) == 0 {
		interpreters = DefaultInterpreters
	}
	args := []string{"-u", "-c", Script}

	strategies := []Strategy{BundledStrategy(resourceDir, args)}
	for _, name := range interpreters {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		strategies = append(strategies, Strategy{
			Name: fmt.Sprintf("system interpreter '%s'", name),
			Path: name,
			Args: args,
		})
	}
	return strategies
}

// BundledStrategy locates the interpreter under
// <resourceDir>/python/<GOOS>-<GOARCH>.
func BundledStrategy(resourceDir string, args []string) Strategy {
	s := Strategy{Name: "bundled runtime", Args: args, Bundled: true}
	if resourceDir == "" {
		s.Unavailable = "Bundled runtime path could not be determined from the application resources directory."
		return s
	}

	root := filepath.Join(resourceDir, "python", runtime.GOOS+"-"+runtime.GOARCH)
	if _, err := os.Stat(root); err != nil {
		s.Unavailable = fmt.Sprintf("Bundled runtime not found at %s.", root)
		return s
	}

	binDir, candidates := filepath.Join(root, "bin"), []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		binDir, candidates = filepath.Join(root, "Scripts"), []string{"python.exe", "python"}
	}
	if info, err := os.Stat(binDir); err != nil || !info.IsDir() {
		s.Broken = fmt.Sprintf("Bundled runtime at %s is missing its %s directory.", root, filepath.Base(binDir))
		return s
	}

	for _, candidate := range candidates {
		path := filepath.Join(binDir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			s.Path = path
			s.Env = []string{
				"VIRTUAL_ENV=" + root,
				"PATH=" + binDir + string(os.PathListSeparator) + os.Getenv("PATH"),
			}
			return s
		}
	}
	s.Broken = fmt.Sprintf("Bundled runtime at %s does not contain a Python interpreter in %s.", root, binDir)
	return s
}

type process struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   io.ReadCloser
	stderr   io.ReadCloser
	strategy Strategy
}

// launch starts the first strategy that works and reports every attempt
// when none do.
func launch(strategies []Strategy) (*process, error) {
	var attempts []string
	for _, s := range strategies {
		if s.Broken != "" {
			return nil, errs.Protocol(nil, "%s", s.Broken)
		}
		if s.Unavailable != "" {
			attempts = append(attempts, s.Unavailable)
			continue
		}

		p, err := start(s)
		if err == nil {
			return p, nil
		}
		switch {
		case errors.Is(err, exec.ErrNotFound):
			attempts = append(attempts, fmt.Sprintf("System interpreter '%s' was not found on the PATH.", s.Path))
		case errors.Is(err, fs.ErrNotExist) && s.Bundled:
			attempts = append(attempts, fmt.Sprintf("Bundled runtime not found at %s.", s.Path))
		default:
			attempts = append(attempts, fmt.Sprintf("Unable to launch %s: %v", s.Name, err))
		}
	}

	var b strings.Builder
	b.WriteString("Unable to launch a Python 3 runtime.\n")
	for _, a := range attempts {
		b.WriteString("- ")
		b.WriteString(a)
		b.WriteString("\n")
	}
	b.WriteString(Remediation)
	return nil, errs.Protocol(nil, "%s", b.String())
}

func start(s Strategy) (*process, error) {
	cmd := exec.Command(s.Path, s.Args...) // #nosec G204
	cmd.Env = append(append(os.Environ(), baseEnv...), s.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &process{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr, strategy: s}, nil
}
