package pacer

import (
	"math"
	"strconv"
	"strings"

	"github.com/andante-io/andante/internal/event"
)

// Config is the parsed, immutable configuration of one pace filter
// instance. It is built once from the host's settings map and read-only
// thereafter.
//
// Exactly one of the two modes is active for the lifetime of an instance:
// Periodic (Replay=false) sleeps for the resolved `time` every Every-th
// event; Replay (Replay=true) reproduces recorded inter-event spacing, with
// `time` reinterpreted as a speed divisor, capped per event by Threshold
// and floored by Cooldown. Every is ignored in replay mode.
type Config struct {
	// Replay selects replay mode.
	Replay bool

	// Delay resolves the `time` option against an event. In periodic mode
	// it is the sleep duration in seconds; in replay mode it is the speed
	// divisor (2 replays twice as fast).
	Delay DelayProvider

	// Every triggers a periodic-mode sleep every Nth event. Kept as a
	// float because the option may arrive as a numeric string and the
	// trigger comparison is done in floating point.
	Every float64

	// Threshold caps a single timeline-derived sleep in replay mode.
	Threshold float64

	// Cooldown is the minimum wall-clock time that must elapse since an
	// event's recorded timestamp before it proceeds, in replay mode.
	Cooldown float64
}

// DelayProvider resolves the `time` option to seconds for one event.
// The numeric-vs-template decision is made once at configuration time, so
// no per-event type inspection happens on the hot path.
type DelayProvider interface {
	Seconds(e *event.Event) float64
}

// fixedDelay is a constant `time` value.
type fixedDelay float64

func (d fixedDelay) Seconds(*event.Event) float64 {
	return float64(d)
}

// templateDelay evaluates a %{field} template against each event and
// parses the result as a float. An absent field or non-numeric rendering
// yields 0: a malformed reference degrades to a no-op sleep rather than
// halting the stream.
type templateDelay string

func (d templateDelay) Seconds(e *event.Event) float64 {
	rendered := e.Format(string(d))
	f, err := strconv.ParseFloat(strings.TrimSpace(rendered), 64)
	if err != nil {
		return 0
	}
	return f
}

// configOptions is the set of keys the pace filter understands.
var configOptions = map[string]bool{
	"time":      true,
	"every":     true,
	"replay":    true,
	"threshold": true,
	"cooldown":  true,
}

// ParseConfig validates and parses a settings map into a Config.
//
// All constant numeric options are coerced to float64 here, failing fast
// on unparsable values. Only a `time` string containing a %{field}
// reference defers resolution to per-event evaluation.
func ParseConfig(settings map[string]any) (Config, error) {
	cfg := Config{
		Every:     1,
		Threshold: math.Inf(1),
		Cooldown:  0,
	}

	for key := range settings {
		if !configOptions[key] {
			return Config{}, &ConfigError{
				Code:    ErrCodeUnknownOption,
				Option:  key,
				Message: "unrecognized option",
			}
		}
	}

	if v, ok := settings["replay"]; ok {
		b, ok := v.(bool)
		if !ok {
			return Config{}, &ConfigError{
				Code:    ErrCodeBadNumber,
				Option:  "replay",
				Message: "replay must be a boolean",
			}
		}
		cfg.Replay = b
	}

	delay, err := parseDelay(settings, cfg.Replay)
	if err != nil {
		return Config{}, err
	}
	cfg.Delay = delay

	if v, ok := settings["every"]; ok {
		f, ok := floatValue(v)
		if !ok {
			return Config{}, newBadNumberError("every", v)
		}
		if f <= 0 {
			return Config{}, &ConfigError{
				Code:    ErrCodeNotPositive,
				Option:  "every",
				Message: "every must be a positive integer",
			}
		}
		cfg.Every = f
	}

	if v, ok := settings["threshold"]; ok {
		f, ok := floatValue(v)
		if !ok {
			return Config{}, newBadNumberError("threshold", v)
		}
		cfg.Threshold = f
	}

	if v, ok := settings["cooldown"]; ok {
		f, ok := floatValue(v)
		if !ok {
			return Config{}, newBadNumberError("cooldown", v)
		}
		cfg.Cooldown = f
	}

	return cfg, nil
}

// parseDelay resolves the `time` option into a DelayProvider.
func parseDelay(settings map[string]any, replay bool) (DelayProvider, error) {
	v, ok := settings["time"]
	if !ok {
		if !replay {
			return nil, newMissingTimeError()
		}
		// Replay with no explicit speed runs at recorded speed.
		return fixedDelay(1), nil
	}

	if s, ok := v.(string); ok && strings.Contains(s, "%{") {
		return templateDelay(s), nil
	}

	f, ok := floatValue(v)
	if !ok {
		return nil, newBadNumberError("time", v)
	}
	return fixedDelay(f), nil
}

// floatValue coerces the value types YAML and JSON decoding produce into a
// float64. String-typed numbers are accepted so "5" and 5 configure
// identically.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
