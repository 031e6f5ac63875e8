package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// Config holds console settings.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Prompt  string `yaml:"prompt"`
}

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// Shell is an interactive prompt over a Registry.
type Shell struct {
	registry *Registry
	rl       lineReader
	out      io.Writer
	logger   *slog.Logger
	once     sync.Once
}

// NewShell opens a readline prompt on the terminal.
func NewShell(registry *Registry, cfg Config, logger *slog.Logger) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline: %w", err)
	}
	return &Shell{registry: registry, rl: rl, out: rl.Stdout(), logger: logger}, nil
}

// Stdout returns a writer that does not clobber the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run reads and executes lines until EOF, "exit" or ctx is done. Command
// errors are printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context) {
	defer s.close()

	go func() {
		<-ctx.Done()
		s.close()
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return // EOF or closed
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return
		}

		if err := s.registry.ExecLine(s.out, line); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			s.logger.Debug("console command failed", "line", line, "err", err)
		}
	}
}

func (s *Shell) close() {
	s.once.Do(func() { s.rl.Close() })
}
