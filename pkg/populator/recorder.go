package populator

import (
	"sync"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// LogLine is one captured log call.
type LogLine struct {
	Level   logger.Level
	Message string
	Fields  []logger.Field
}

// Recorder is a logger.Logger that captures lines so hooks stay free of
// side effects. Lines are replayed into the real sink by hooks.Apply.
type Recorder struct {
	sink   *recorderSink
	fields []logger.Field
}

type recorderSink struct {
	mu    sync.Mutex
	lines []LogLine
}

var _ logger.Logger = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{sink: &recorderSink{}}
}

func (r *Recorder) With(fields ...logger.Field) logger.Logger {
	if len(fields) == 0 {
		return r
	}
	merged := make([]logger.Field, 0, len(r.fields)+len(fields))
	merged = append(merged, r.fields...)
	merged = append(merged, fields...)
	return &Recorder{sink: r.sink, fields: merged}
}

func (r *Recorder) Debug(msg string, fields ...logger.Field) { r.add(logger.LevelDebug, msg, fields) }
func (r *Recorder) Info(msg string, fields ...logger.Field)  { r.add(logger.LevelInfo, msg, fields) }
func (r *Recorder) Warn(msg string, fields ...logger.Field)  { r.add(logger.LevelWarn, msg, fields) }
func (r *Recorder) Error(msg string, fields ...logger.Field) { r.add(logger.LevelError, msg, fields) }

func (r *Recorder) add(level logger.Level, msg string, fields []logger.Field) {
	all := make([]logger.Field, 0, len(r.fields)+len(fields))
	all = append(all, r.fields...)
	all = append(all, fields...)
	r.sink.mu.Lock()
	r.sink.lines = append(r.sink.lines, LogLine{Level: level, Message: msg, Fields: all})
	r.sink.mu.Unlock()
}

// Lines returns a copy of the captured lines.
func (r *Recorder) Lines() []LogLine {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	out := make([]LogLine, len(r.sink.lines))
	copy(out, r.sink.lines)
	return out
}

// Replay writes lines into l. Debug lines are dropped unless debug is set.
func Replay(lines []LogLine, l logger.Logger, debug bool) {
	l = logger.OrNop(l)
	for _, line := range lines {
		switch line.Level {
		case logger.LevelDebug:
			if debug {
				l.Debug(line.Message, line.Fields...)
			}
		case logger.LevelInfo:
			l.Info(line.Message, line.Fields...)
		case logger.LevelWarn:
			l.Warn(line.Message, line.Fields...)
		default:
			l.Error(line.Message, line.Fields...)
		}
	}
}
