// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	applog "spectrum/internal/log"
)

// DefaultPublishInterval polls at roughly display refresh rate.
const DefaultPublishInterval = 33 * time.Millisecond

// Publisher periodically takes the latest spectrum from a Source, turns it
// into a Frame and sends it to every transport. Nothing is sent when no new
// spectrum was published since the last poll.
// It runs in a separate goroutine managed by Start and Stop methods and is
// the Source's only consumer.
type Publisher struct {
	source     Source
	transports []Transport
	interval   time.Duration
	bands      []FrequencyBand
	now        func() time.Time

	ticker   *time.Ticker   // Ticker that triggers polling.
	doneChan chan struct{}  // Signals the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	published  atomic.Uint64
	sendErrors atomic.Uint64
}

// NewPublisher creates a publisher polling source every interval.
// If the provided interval is invalid (<= 0), it defaults to DefaultPublishInterval.
func NewPublisher(interval time.Duration, source Source, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("publisher: source cannot be nil")
	}
	for i, t := range transports {
		if t == nil {
			return nil, fmt.Errorf("publisher: transport %d is nil", i)
		}
	}

	if interval <= 0 {
		interval = DefaultPublishInterval
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("Publisher: Initializing (Interval: %s, Transports: %d)", interval, len(transports))
	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		bands:      DefaultBands,
		now:        time.Now,
	}, nil
}

// AddTransport adds a destination for frames. Must be called before Start.
func (p *Publisher) AddTransport(t Transport) {
	p.transports = append(p.transports, t)
}

// SetBands replaces the bands summarised in every frame. Nil disables band
// energies. Must be called before Start.
func (p *Publisher) SetBands(bands []FrequencyBand) {
	p.bands = bands
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("Publisher: Goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.PublishPending()
			case <-doneChan:
				applog.Debugf("Publisher: Goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("Publisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("Publisher: Stopped after %d frames.", p.published.Load())
	return nil
}

// PublishPending performs one poll: if a new spectrum is available it is
// sent to all transports. It reports whether a frame was sent. The source
// has a single consumer: while the publisher is started that is its own
// goroutine, otherwise the caller.
func (p *Publisher) PublishPending() bool {
	spec, ok := p.source.TryTake()
	if !ok {
		return false
	}

	frame := NewFrame(spec, p.now(), p.bands)
	for _, t := range p.transports {
		if err := t.Send(frame); err != nil {
			p.sendErrors.Add(1)
			applog.Debugf("Publisher: Send failed for frame %d: %v", frame.Sequence, err)
		}
	}
	p.published.Add(1)
	return true
}

// Published returns the number of frames sent.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

// SendErrors returns the number of failed transport sends.
func (p *Publisher) SendErrors() uint64 {
	return p.sendErrors.Load()
}

// Close stops the publisher and closes every transport.
func (p *Publisher) Close() error {
	errs := []error{p.Stop()}
	for _, t := range p.transports {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

var _ interface{ Close() error } = (*Publisher)(nil)
