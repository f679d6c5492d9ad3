package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig holds Pyroscope continuous profiling configuration.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string // e.g. "http://pyroscope:4040"
	ApplicationName   string
	BasicAuthUser     string // for Grafana Cloud
	BasicAuthPassword string

	// Which profile streams to collect.
	ProfileCPU           bool
	ProfileAllocObjects  bool
	ProfileAllocSpace    bool
	ProfileInuseObjects  bool
	ProfileInuseSpace    bool
	ProfileGoroutines    bool
	ProfileMutexCount    bool
	ProfileMutexDuration bool
	ProfileBlockCount    bool
	ProfileBlockDuration bool

	MutexProfileFraction int // default 5
	BlockProfileRate     int // default 5
	DisableGCRuns        bool
}

func (cfg ProfilerConfig) validate() error {
	if cfg.ServerAddress == "" {
		return fmt.Errorf("profiler server address is required when profiling is enabled")
	}
	if cfg.ApplicationName == "" {
		return fmt.Errorf("profiler application name is required when profiling is enabled")
	}
	return nil
}

func (cfg ProfilerConfig) profileTypes() []pyroscope.ProfileType {
	var types []pyroscope.ProfileType
	add := func(on bool, t pyroscope.ProfileType) {
		if on {
			types = append(types, t)
		}
	}

	add(cfg.ProfileCPU, pyroscope.ProfileCPU)
	add(cfg.ProfileAllocObjects, pyroscope.ProfileAllocObjects)
	add(cfg.ProfileAllocSpace, pyroscope.ProfileAllocSpace)
	add(cfg.ProfileInuseObjects, pyroscope.ProfileInuseObjects)
	add(cfg.ProfileInuseSpace, pyroscope.ProfileInuseSpace)
	add(cfg.ProfileGoroutines, pyroscope.ProfileGoroutines)
	add(cfg.ProfileMutexCount, pyroscope.ProfileMutexCount)
	add(cfg.ProfileMutexDuration, pyroscope.ProfileMutexDuration)
	add(cfg.ProfileBlockCount, pyroscope.ProfileBlockCount)
	add(cfg.ProfileBlockDuration, pyroscope.ProfileBlockDuration)
	return types
}

// Profiler owns the lifecycle of the Pyroscope agent. Disabled profiling
// leaves the agent nil and Stop a no-op.
type Profiler struct {
	agent  *pyroscope.Profiler
	log    *zap.Logger
	config ProfilerConfig

	mu      sync.Mutex
	stopped bool
}

// NewProfiler starts the Pyroscope agent, switching on runtime mutex and
// block collection when those streams are requested.
func NewProfiler(cfg ProfilerConfig, log *zap.Logger) (*Profiler, error) {
	p := &Profiler{log: log, config: cfg}

	if !cfg.Enabled {
		log.Info("Continuous profiling disabled")
		return p, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Mutex and block profiles are off in the runtime until asked for.
	if cfg.ProfileMutexCount || cfg.ProfileMutexDuration {
		runtime.SetMutexProfileFraction(defaulted(cfg.MutexProfileFraction, 5))
	}
	if cfg.ProfileBlockCount || cfg.ProfileBlockDuration {
		runtime.SetBlockProfileRate(defaulted(cfg.BlockProfileRate, 5))
	}

	types := cfg.profileTypes()
	if len(types) == 0 {
		log.Warn("Profiler started with no profile streams selected")
	}

	agent, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            pyroscopeZap{log.Named("pyroscope").Sugar()},
		Tags:              hostTags(),
		ProfileTypes:      types,
		DisableGCRuns:     cfg.DisableGCRuns,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope agent: %w", err)
	}
	p.agent = agent

	log.Info("Continuous profiling started",
		zap.String("server", cfg.ServerAddress),
		zap.String("application", cfg.ApplicationName),
		zap.Int("streams", len(types)),
	)

	return p, nil
}

func defaulted(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// hostTags labels profiles with where they came from, when the
// orchestrator exposes it.
func hostTags() map[string]string {
	tags := map[string]string{}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		tags["pod"] = pod
	}
	return tags
}

// Stop flushes pending profiles and stops the agent. Safe to call more
// than once. The Pyroscope SDK takes no context here and relies on its
// own timeouts against an unresponsive server.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.agent == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.agent.Stop(); err != nil {
		p.log.Error("Profiler stop failed", zap.Error(err))
		return fmt.Errorf("stop pyroscope agent: %w", err)
	}

	p.log.Info("Continuous profiling stopped")
	return nil
}

// IsEnabled reports whether the agent is running.
func (p *Profiler) IsEnabled() bool {
	return p.config.Enabled && p.agent != nil
}

// GetConfig returns a copy of the profiler configuration.
func (p *Profiler) GetConfig() ProfilerConfig {
	return p.config
}

// pyroscopeZap adapts zap to the pyroscope.Logger interface.
type pyroscopeZap struct {
	sugar *zap.SugaredLogger
}

func (l pyroscopeZap) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l pyroscopeZap) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l pyroscopeZap) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }
