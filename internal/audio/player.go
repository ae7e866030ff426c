package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/mattn/go-shellwords"
)

// ErrSpawn means the external player process could not be started at all.
var ErrSpawn = errors.New("audio: player spawn failed")

// ExitError reports a player process that ran but exited nonzero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("audio player exited with code %d", e.Code)
}

// Player renders audio by piping it into an external playback process, one
// process per call. Completion is signaled solely by process exit: a
// mid-stream read error is logged but the verdict stays with the exit code.
type Player struct {
	cmd []string
	log *slog.Logger
}

func NewPlayer(command string, log *slog.Logger) (*Player, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse playback command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("playback command empty")
	}
	return &Player{cmd: args, log: log.With(slog.String("component", "audio-player"))}, nil
}

// PlayStream pipes the stream into a fresh player process as data arrives
// and blocks until the process exits.
func (p *Player) PlayStream(ctx context.Context, stream io.Reader) error {
	base := p.cmd[0]
	args := append([]string{}, p.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	go func() {
		if _, err := io.Copy(stdin, stream); err != nil {
			// The stream ended early; the player sees EOF and decides.
			p.log.Warn("audio stream read failed", slog.String("error", err.Error()))
		}
		stdin.Close()
	}()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return err
	}
	return nil
}

// PlayFile opens the file and pipes it exactly like a live stream.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return p.PlayStream(ctx, f)
}
