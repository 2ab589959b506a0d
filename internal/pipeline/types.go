package pipeline

import "time"

// Stage describes a high-level compilation phase.
type Stage string

const (
	// StageLex is the tokenizing stage.
	StageLex Stage = "lex"
	// StageParse is the directive parsing stage.
	StageParse Stage = "parse"
	// StageNormalize is the HTML structural normalization stage.
	StageNormalize Stage = "normalize"
	// StageOptimize is the optimization-pass stage.
	StageOptimize Stage = "optimize"
	// StageGenerate is the output generation stage.
	StageGenerate Stage = "generate"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the template is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the template is being compiled.
	StatusWorking Status = "working"
	// StatusDone indicates the template compiled cleanly.
	StatusDone Status = "done"
	// StatusCached indicates the artifact came from the cache.
	StatusCached Status = "cached"
	// StatusError indicates compilation failed.
	StatusError Status = "error"
)

// Event reports progress for a template (or for the overall batch when
// File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink delivers events to a channel, typically feeding the batch
// TUI. A nil channel discards them.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch != nil {
		s.Ch <- evt
	}
}

// MultiSink fans one event out to several sinks.
type MultiSink []ProgressSink

func (m MultiSink) OnEvent(evt Event) {
	for _, s := range m {
		if s != nil {
			s.OnEvent(evt)
		}
	}
}
