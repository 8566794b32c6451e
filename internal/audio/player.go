// Package audio plays the end-of-interval chime and the ambient loop by
// running an external audio player.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pomo/internal/config"
	"pomo/internal/logging"
)

// loopGap separates ambient repetitions.
const loopGap = 50 * time.Millisecond

// ErrNoPlayer is returned when no audio player command is available.
var ErrNoPlayer = errors.New("no audio player found")

// runFunc runs one playback to completion or until ctx is canceled.
type runFunc func(ctx context.Context, argv []string) error

// Player implements timer.Player.
type Player struct {
	chime   string
	ambient string
	command []string
	bell    io.Writer
	logger  zerolog.Logger
	run     runFunc

	mu            sync.Mutex
	ambientCancel context.CancelFunc
	ambientDone   chan struct{}
}

// New creates a Player from the sounds config. An empty Player command
// selects the platform default. bell receives a terminal bell when no chime
// file is configured; nil disables it.
func New(cfg config.SoundConfig, bell io.Writer) *Player {
	command := strings.Fields(cfg.Player)
	if len(command) == 0 {
		command = defaultCommand()
	}
	return &Player{
		chime:   expandHome(cfg.Chime),
		ambient: expandHome(cfg.Ambient),
		command: command,
		bell:    bell,
		logger:  logging.Component("audio"),
		run:     runCommand,
	}
}

// Chime plays the chime once without waiting for it to finish.
func (p *Player) Chime() error {
	if p.chime == "" {
		if p.bell != nil {
			_, err := io.WriteString(p.bell, "\a")
			return err
		}
		return nil
	}
	argv, err := p.argv(p.chime)
	if err != nil {
		return err
	}
	go func() {
		if err := p.run(context.Background(), argv); err != nil {
			p.logger.Warn().Err(err).Str("file", p.chime).Msg("chime playback failed")
		}
	}()
	return nil
}

// StartAmbient loops the ambient file until StopAmbient. It is a no-op when
// the loop is already running or no ambient file is configured.
func (p *Player) StartAmbient() error {
	if p.ambient == "" {
		return nil
	}
	argv, err := p.argv(p.ambient)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ambientCancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.ambientCancel = cancel
	p.ambientDone = done

	go func() {
		defer close(done)
		for {
			if err := p.run(ctx, argv); err != nil && ctx.Err() == nil {
				p.logger.Warn().Err(err).Str("file", p.ambient).Msg("ambient playback failed")
				p.clearAmbient(done)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(loopGap):
			}
		}
	}()
	p.logger.Debug().Str("file", p.ambient).Msg("ambient started")
	return nil
}

// StopAmbient stops the ambient loop and waits for the player to exit.
func (p *Player) StopAmbient() error {
	p.mu.Lock()
	cancel, done := p.ambientCancel, p.ambientDone
	p.ambientCancel, p.ambientDone = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	p.logger.Debug().Msg("ambient stopped")
	return nil
}

// clearAmbient forgets the loop that owns done, so the next StartAmbient
// launches a new one.
func (p *Player) clearAmbient(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ambientDone == done {
		p.ambientCancel()
		p.ambientCancel, p.ambientDone = nil, nil
	}
}

// AmbientPlaying reports whether the ambient loop is running.
func (p *Player) AmbientPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ambientCancel != nil
}

func (p *Player) argv(file string) ([]string, error) {
	if len(p.command) == 0 {
		return nil, ErrNoPlayer
	}
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("sound file: %w", err)
	}
	argv := append([]string(nil), p.command...)
	return append(argv, file), nil
}

func runCommand(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// lookFirst returns the first candidate whose program is on PATH.
func lookFirst(candidates ...[]string) []string {
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
