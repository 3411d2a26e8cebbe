package pprof

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers the /debug/pprof handlers
	"runtime"
	"runtime/pprof"
	"sync"
	"time"
)

// Collector runs profile collection per the configured mode. In file
// mode it snapshots the enabled profile types every interval; in http
// mode it serves the standard debug endpoints.
type Collector struct {
	config *Config
	writer *Writer

	cancel context.CancelFunc
	wg     sync.WaitGroup
	server *http.Server

	mu      sync.Mutex
	running bool
}

// NewCollector creates a Collector from a validated config.
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Collector{
		config: cfg,
		writer: NewWriter(cfg.OutputDir, cfg.MaxFiles),
	}, nil
}

// Start begins collection. It returns once the snapshot loop or HTTP
// server is running.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("collector is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	switch c.config.Mode {
	case ModeFile:
		if err := c.writer.EnsureDirs(c.config.Profiles); err != nil {
			cancel()
			return err
		}
		c.wg.Add(1)
		go c.snapshotLoop(ctx)
	case ModeHTTP:
		c.server = &http.Server{Addr: c.config.Addr, Handler: http.DefaultServeMux}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Printf("pprof http server error: %v\n", err)
			}
		}()
	}

	c.running = true
	return nil
}

// Stop shuts collection down and waits for in-flight snapshots.
func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()

	var err error
	if c.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = c.server.Shutdown(shutdownCtx)
	}

	c.wg.Wait()
	return err
}

// Writer returns the snapshot writer.
func (c *Collector) Writer() *Writer {
	return c.writer
}

func (c *Collector) snapshotLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collectAll(ctx)
		}
	}
}

func (c *Collector) collectAll(ctx context.Context) {
	for _, pt := range c.config.Profiles {
		var (
			data []byte
			err  error
		)
		if pt == ProfileCPU {
			data, err = c.snapshotCPU(ctx)
		} else {
			data, err = snapshot(pt)
		}
		if err != nil {
			continue
		}
		_, _ = c.writer.Write(pt, data)
	}
}

// snapshot captures a point-in-time profile.
func snapshot(pt ProfileType) ([]byte, error) {
	var buf bytes.Buffer

	if pt == ProfileHeap {
		// A GC before the heap snapshot makes live-object counts accurate.
		runtime.GC()
		if err := pprof.WriteHeapProfile(&buf); err != nil {
			return nil, fmt.Errorf("failed to write heap profile: %w", err)
		}
		return buf.Bytes(), nil
	}

	p := pprof.Lookup(string(pt))
	if p == nil {
		return nil, fmt.Errorf("unknown profile type: %s", pt)
	}
	if err := p.WriteTo(&buf, 0); err != nil {
		return nil, fmt.Errorf("failed to write %s profile: %w", pt, err)
	}
	return buf.Bytes(), nil
}

// snapshotCPU records CPU usage for the configured duration.
func (c *Collector) snapshotCPU(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer

	if err := pprof.StartCPUProfile(&buf); err != nil {
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	select {
	case <-time.After(c.config.CPUDuration):
	case <-ctx.Done():
		pprof.StopCPUProfile()
		return nil, ctx.Err()
	}

	pprof.StopCPUProfile()
	return buf.Bytes(), nil
}
