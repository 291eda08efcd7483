package layers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/logging"
)

// Command computes a layer by running an external program. Arguments may
// hold the placeholders {iso3} {proj} {xmin} {ymin} {xmax} {ymax} {dir}.
type Command struct {
	Layer   string
	Program string
	Args    []string
	Env     []string // extra KEY=VALUE pairs on top of the process env
	Logger  *slog.Logger
}

var _ Computer = (*Command)(nil)

func (c *Command) Name() string { return c.Layer }

// Expand returns the arguments with the placeholders of job substituted.
func (c *Command) Expand(job Job) []string {
	repl := strings.NewReplacer(
		"{iso3}", job.ISO3,
		"{proj}", job.Proj,
		"{xmin}", formatCoord(job.Region.Min[0]),
		"{ymin}", formatCoord(job.Region.Min[1]),
		"{xmax}", formatCoord(job.Region.Max[0]),
		"{ymax}", formatCoord(job.Region.Max[1]),
		"{dir}", job.Dir,
	)
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		out[i] = repl.Replace(a)
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Compute runs the program inside job.Dir. Its output is forwarded line by
// line to the logger; a non-zero exit is a layer error.
func (c *Command) Compute(ctx context.Context, job Job) error {
	if c.Program == "" {
		return &domain.OpError{Op: "layers.command", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("layer %s has no program", c.Layer)}
	}
	log := logging.OrNoop(c.Logger).With("layer", c.Layer)

	args := c.Expand(job)
	cmd := exec.CommandContext(ctx, c.Program, args...)
	cmd.Dir = job.Dir
	cmd.Env = append(os.Environ(), c.Env...)

	stdout := &lineLogger{log: log, level: slog.LevelInfo, stream: "stdout"}
	stderr := &lineLogger{log: log, level: slog.LevelWarn, stream: "stderr"}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Info("running layer", "program", c.Program, "args", args, "dir", job.Dir)
	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		return &domain.OpError{Op: "layers." + c.Layer, Kind: domain.KindLayer, Path: job.Dir, Err: err}
	}
	return nil
}

// lineLogger emits one log record per complete line written to it.
type lineLogger struct {
	log    *slog.Logger
	level  slog.Level
	stream string

	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(p)
	for {
		i := bytes.IndexByte(l.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(l.buf.Next(i+1), "\r\n"))
		l.emit(line)
	}
	return len(p), nil
}

// Flush logs a trailing line that had no newline.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		l.emit(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) emit(line string) {
	if line == "" {
		return
	}
	l.log.Log(context.Background(), l.level, line, "stream", l.stream)
}
