// Package player provides a headless, clock-driven player. It stands in for a
// rendering media player: the playhead advances in wall-clock time while playing
// and the end of the stream is signalled when the known duration is reached.
package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"vidwatch/domain/apperror"
	"vidwatch/domain/repository"
	"vidwatch/infrastructure/logger"
)

var ErrPlayerDisposed = errors.New("player disposed")

// Factory builds VirtualPlayers. When probe is set the HLS master playlist is
// fetched first and must start with #EXTM3U.
type Factory struct {
	client *http.Client
	probe  bool
}

func NewFactory(client *http.Client, probe bool) *Factory {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Factory{client: client, probe: probe}
}

// New matches repository.PlayerFactory
func (f *Factory) New(ctx context.Context, source repository.PlayerSource, listener repository.PlayerListener) (repository.IPlayer, error) {
	if strings.TrimSpace(source.URL) == "" {
		return nil, fmt.Errorf("%w: empty stream url", apperror.ErrPlaybackFault)
	}
	if f.probe {
		if err := f.probePlaylist(ctx, source.URL); err != nil {
			return nil, err
		}
	}
	return NewVirtualPlayer(source.Duration, listener), nil
}

func (f *Factory) probePlaylist(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrPlaybackFault, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: playlist unreachable: %v", apperror.ErrPlaybackFault, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: playlist returned status %d", apperror.ErrPlaybackFault, resp.StatusCode)
	}
	line, err := bufio.NewReader(io.LimitReader(resp.Body, 512)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: reading playlist: %v", apperror.ErrPlaybackFault, err)
	}
	if strings.TrimSpace(line) != "#EXTM3U" {
		return fmt.Errorf("%w: not an HLS playlist", apperror.ErrPlaybackFault)
	}
	return nil
}

// VirtualPlayer implements repository.IPlayer. Listener callbacks run without
// the player lock held; OnPlaying and OnPaused run on the caller's goroutine,
// OnEnded on the end timer's goroutine.
type VirtualPlayer struct {
	mu        sync.Mutex
	listener  repository.PlayerListener
	duration  time.Duration
	position  time.Duration
	startedAt time.Time
	playing   bool
	disposed  bool
	endTimer  *time.Timer
	gen       uint64
	now       func() time.Time
}

func NewVirtualPlayer(duration time.Duration, listener repository.PlayerListener) *VirtualPlayer {
	return &VirtualPlayer{listener: listener, duration: duration, now: time.Now}
}

func (p *VirtualPlayer) Play() error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return ErrPlayerDisposed
	}
	if p.playing {
		p.mu.Unlock()
		return nil
	}
	if p.duration > 0 && p.position >= p.duration {
		p.position = 0
	}
	p.playing = true
	p.startedAt = p.now()
	p.scheduleEndLocked()
	p.mu.Unlock()

	p.listener.OnPlaying()
	return nil
}

func (p *VirtualPlayer) Pause() error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return ErrPlayerDisposed
	}
	if !p.playing {
		p.mu.Unlock()
		return nil
	}
	p.position = p.currentLocked()
	p.playing = false
	p.stopTimerLocked()
	p.mu.Unlock()

	p.listener.OnPaused()
	return nil
}

func (p *VirtualPlayer) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return ErrPlayerDisposed
	}
	if position < 0 {
		position = 0
	}
	if p.duration > 0 && position > p.duration {
		position = p.duration
	}
	p.position = position
	if p.playing {
		p.startedAt = p.now()
		p.scheduleEndLocked()
	}
	return nil
}

func (p *VirtualPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *VirtualPlayer) Duration() time.Duration {
	return p.duration
}

// Dispose stops the clock. Safe to call more than once.
func (p *VirtualPlayer) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	p.position = p.currentLocked()
	p.disposed = true
	p.playing = false
	p.stopTimerLocked()
}

func (p *VirtualPlayer) currentLocked() time.Duration {
	pos := p.position
	if p.playing {
		pos += p.now().Sub(p.startedAt)
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

func (p *VirtualPlayer) scheduleEndLocked() {
	p.stopTimerLocked()
	if p.duration <= 0 {
		return
	}
	p.gen++
	gen := p.gen
	p.endTimer = time.AfterFunc(p.duration-p.position, func() { p.finish(gen) })
}

func (p *VirtualPlayer) stopTimerLocked() {
	if p.endTimer != nil {
		p.endTimer.Stop()
		p.endTimer = nil
	}
	p.gen++
}

func (p *VirtualPlayer) finish(gen uint64) {
	p.mu.Lock()
	if p.disposed || !p.playing || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.position = p.duration
	p.playing = false
	p.endTimer = nil
	p.mu.Unlock()

	logger.GetLogger().WithField("duration", p.duration.String()).Debug("Virtual player reached end of stream")
	p.listener.OnEnded()
}
