package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type mpvCommand struct {
	Command   []interface{} `json:"command"`
	RequestID int           `json:"request_id,omitempty"`
}

type mpvResponse struct {
	Data      interface{} `json:"data"`
	RequestID int         `json:"request_id"`
	Error     string      `json:"error"`
}

type mpvEvent struct {
	Event     string      `json:"event"`
	ID        int         `json:"id,omitempty"`
	Name      string      `json:"name,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	FileError string      `json:"file_error,omitempty"`
}

// observed properties, keyed by observe_property id
var mpvObserved = []struct {
	id   int
	name string
}{
	{1, "time-pos"},
	{2, "pause"},
	{3, "duration"},
}

// MPV is a MediaElement backed by an mpv process controlled over its JSON IPC socket
type MPV struct {
	binary     string
	socketPath string
	logger     zerolog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	loaded   bool
	closed   bool
	position float64
	duration float64

	events    chan Event
	eventConn net.Conn
	eventStop chan struct{}
	eventDone chan struct{}
	closeOnce sync.Once
}

type MPVOption func(*MPV)

// WithBinary sets the mpv executable to run
func WithBinary(path string) MPVOption {
	return func(p *MPV) {
		if path != "" {
			p.binary = path
		}
	}
}

// WithSocketDir sets the directory that holds the IPC socket
func WithSocketDir(dir string) MPVOption {
	return func(p *MPV) {
		if dir != "" {
			p.socketPath = filepath.Join(dir, filepath.Base(p.socketPath))
		}
	}
}

func WithLogger(logger zerolog.Logger) MPVOption {
	return func(p *MPV) {
		p.logger = logger
	}
}

func NewMPV(opts ...MPVOption) *MPV {
	p := &MPV{
		binary:     "mpv",
		socketPath: filepath.Join(os.TempDir(), fmt.Sprintf("podcast-player-mpv-%d", os.Getpid())),
		logger:     zerolog.Nop(),
		events:     make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(p)
	}

	// Clean up any stale socket from previous run
	os.Remove(p.socketPath)

	return p
}

// Start launches mpv in idle mode and attaches the event listener
func (p *MPV) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("mpv player is closed")
	}
	if p.cmd != nil {
		return nil
	}

	os.Remove(p.socketPath)

	p.cmd = exec.Command(p.binary,
		"--no-video",
		"--really-quiet",
		"--no-terminal",
		fmt.Sprintf("--input-ipc-server=%s", p.socketPath),
		"--idle",
		"--force-window=no",
		"--keep-open=no",
	)

	if err := p.cmd.Start(); err != nil {
		p.cmd = nil
		return errors.Wrap(err, "failed to start mpv")
	}

	// Wait for mpv to create the socket with timeout
	socketReady := false
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(p.socketPath); err == nil {
			socketReady = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if !socketReady {
		p.cmd.Process.Kill()
		p.cmd.Wait()
		p.cmd = nil
		return errors.New("mpv socket not created after timeout")
	}

	if err := p.startEventListener(); err != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
		p.cmd = nil
		return err
	}

	p.logger.Debug().Str("Method", "Start").Str("Socket", p.socketPath).Msg("mpv started in idle mode")
	return nil
}

// Load replaces the current source. Playback state is left to Play/Pause.
func (p *MPV) Load(url string) error {
	if err := p.Start(); err != nil {
		return err
	}

	p.mu.Lock()
	p.loaded = false
	p.position = 0
	p.duration = 0
	p.mu.Unlock()

	if _, err := p.sendCommand(mpvCommand{Command: []interface{}{"loadfile", url, "replace"}}); err != nil {
		return errors.Wrapf(err, "failed to load %s", url)
	}

	p.logger.Debug().Str("Method", "Load").Str("URL", url).Msg("source loaded")
	return nil
}

// Unload stops playback and leaves mpv idle
func (p *MPV) Unload() error {
	p.mu.Lock()
	running := p.cmd != nil
	p.loaded = false
	p.position = 0
	p.duration = 0
	p.mu.Unlock()

	if !running {
		return nil
	}

	if _, err := p.sendCommand(mpvCommand{Command: []interface{}{"stop"}}); err != nil {
		return errors.Wrap(err, "failed to stop playback")
	}
	return nil
}

func (p *MPV) Play() error {
	return p.setPause(false)
}

func (p *MPV) Pause() error {
	return p.setPause(true)
}

func (p *MPV) setPause(paused bool) error {
	if !p.running() {
		return errors.New("mpv is not running")
	}

	if _, err := p.sendCommand(mpvCommand{Command: []interface{}{"set_property", "pause", paused}}); err != nil {
		if paused {
			return errors.Wrap(err, "failed to pause")
		}
		return errors.Wrap(err, "failed to play")
	}
	return nil
}

// SetCurrentTime seeks to an absolute position in seconds
func (p *MPV) SetCurrentTime(seconds float64) error {
	if !p.running() {
		return nil
	}

	if seconds < 0 {
		seconds = 0
	}

	if _, err := p.sendCommand(mpvCommand{Command: []interface{}{"seek", seconds, "absolute"}}); err != nil {
		return errors.Wrap(err, "failed to seek")
	}

	p.mu.Lock()
	p.position = seconds
	p.mu.Unlock()
	return nil
}

// CurrentTime returns the last position reported by mpv
func (p *MPV) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *MPV) SetLoop(loop bool) error {
	if !p.running() {
		return nil
	}

	value := "no"
	if loop {
		value = "inf"
	}
	if _, err := p.sendCommand(mpvCommand{Command: []interface{}{"set_property", "loop-file", value}}); err != nil {
		return errors.Wrap(err, "failed to set loop")
	}
	return nil
}

func (p *MPV) Events() <-chan Event {
	return p.events
}

func (p *MPV) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

// Close quits mpv and releases the socket. The Events channel is closed afterwards.
func (p *MPV) Close() {
	p.closeOnce.Do(func() {
		p.stopEventListener()

		p.mu.Lock()
		defer p.mu.Unlock()

		if p.cmd != nil && p.cmd.Process != nil {
			// Try graceful quit first
			p.sendCommand(mpvCommand{Command: []interface{}{"quit"}})

			done := make(chan error, 1)
			go func() {
				done <- p.cmd.Wait()
			}()

			select {
			case <-done:
			case <-time.After(500 * time.Millisecond):
				p.logger.Warn().Str("Method", "Close").Int("Pid", p.cmd.Process.Pid).Msg("force killing mpv")
				if err := p.cmd.Process.Kill(); err != nil {
					p.logger.Error().Str("Method", "Close").Err(err).Msg("kill failed")
				}
				<-done
			}
		}

		// Clean up socket file - try multiple times in case it's still in use
		for i := 0; i < 3; i++ {
			if err := os.Remove(p.socketPath); err == nil || os.IsNotExist(err) {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}

		p.cmd = nil
		p.loaded = false
		p.closed = true
		close(p.events)
	})
}

// sendCommand sends one command on a short-lived connection and waits for the reply
func (p *MPV) sendCommand(cmd mpvCommand) (*mpvResponse, error) {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mpv socket")
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal command")
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to write command")
	}

	// mpv may interleave events on this connection; skip until we see a reply
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, errors.Wrap(err, "failed to read response")
		}

		var probe map[string]interface{}
		if err := json.Unmarshal(line, &probe); err != nil {
			continue
		}
		if _, isEvent := probe["event"]; isEvent {
			continue
		}

		var response mpvResponse
		if err := json.Unmarshal(line, &response); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal response")
		}
		if response.Error != "" && response.Error != "success" {
			return &response, errors.Errorf("mpv error: %s", response.Error)
		}
		return &response, nil
	}
}

// startEventListener opens the persistent event connection. Caller holds p.mu.
func (p *MPV) startEventListener() error {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return errors.Wrap(err, "failed to connect for events")
	}

	// Property observers are bound to the connection that registers them
	for _, prop := range mpvObserved {
		data, _ := json.Marshal(mpvCommand{Command: []interface{}{"observe_property", prop.id, prop.name}})
		if _, err := conn.Write(append(data, '\n')); err != nil {
			conn.Close()
			return errors.Wrapf(err, "failed to observe %s", prop.name)
		}
	}

	p.eventConn = conn
	p.eventStop = make(chan struct{})
	p.eventDone = make(chan struct{})
	go p.handleEvents(conn, p.eventStop, p.eventDone)

	return nil
}

// stopEventListener stops the reader goroutine and waits for it to exit.
// Must not be called with p.mu held since the reader takes it.
func (p *MPV) stopEventListener() {
	p.mu.Lock()
	stop, conn, done := p.eventStop, p.eventConn, p.eventDone
	p.eventStop, p.eventConn, p.eventDone = nil, nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	if conn != nil {
		conn.Close()
	}
	<-done
}

func (p *MPV) handleEvents(conn net.Conn, stop, done chan struct{}) {
	defer close(done)

	reader := bufio.NewReader(conn)
	for {
		select {
		case <-stop:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

		line, err := reader.ReadBytes('\n')
		if err != nil {
			// Timeout is normal, continue
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-stop:
			default:
				p.logger.Error().Str("Method", "handleEvents").Err(err).Msg("event reader stopped")
			}
			return
		}

		var event mpvEvent
		if err := json.Unmarshal(line, &event); err != nil || event.Event == "" {
			continue // Replies and malformed lines
		}

		if ev, ok := p.translate(event); ok {
			p.emit(ev, stop)
		}
	}
}

// translate maps a raw mpv event onto a media Event
func (p *MPV) translate(event mpvEvent) (Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Event {
	case "file-loaded":
		p.loaded = true
		p.position = 0
		return Event{Kind: EventLoadedMetadata, Duration: p.duration}, true

	case "end-file":
		wasLoaded := p.loaded
		p.loaded = false
		switch event.Reason {
		case "eof":
			if p.duration > 0 {
				p.position = p.duration
			}
			return Event{Kind: EventEnded, Position: p.position, Duration: p.duration}, wasLoaded
		case "error":
			return Event{Kind: EventError, Err: errors.Errorf("playback failed: %s", event.FileError)}, true
		}
		// stop, quit and redirect are caused by us
		return Event{}, false

	case "property-change":
		switch event.Name {
		case "time-pos":
			pos, ok := event.Data.(float64)
			if !ok || pos < 0 || !p.loaded {
				return Event{}, false
			}
			p.position = pos
			return Event{Kind: EventTimeUpdate, Position: pos, Duration: p.duration}, true
		case "duration":
			if dur, ok := event.Data.(float64); ok && dur > 0 {
				p.duration = dur
			}
			return Event{}, false
		case "pause":
			paused, ok := event.Data.(bool)
			if !ok || !p.loaded {
				return Event{}, false
			}
			if paused {
				return Event{Kind: EventPause, Position: p.position, Duration: p.duration}, true
			}
			return Event{Kind: EventPlay, Position: p.position, Duration: p.duration}, true
		}
	}

	return Event{}, false
}

// emit delivers ev. Time updates are dropped when the consumer lags; lifecycle events are not.
func (p *MPV) emit(ev Event, stop chan struct{}) {
	if ev.Kind == EventTimeUpdate {
		select {
		case p.events <- ev:
		default:
		}
		return
	}

	select {
	case p.events <- ev:
	case <-stop:
	}
}
