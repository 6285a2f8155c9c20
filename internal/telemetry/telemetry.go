// Package telemetry encodes and decodes the driving simulator's event frames.
//
// Frames are socket.io text events: the "42" prefix followed by a JSON array
// holding the event name and its payload, e.g.
//
//	42["telemetry",{"cte":"0.7598","speed":"0.4380","steering_angle":"0.0000"}]
//	42["steer",{"steering_angle":-0.38,"throttle":0.2}]
package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	eventPrefix = "42"

	EventTelemetry = "telemetry"
	EventSteer     = "steer"
	EventManual    = "manual"
	EventReset     = "reset"
)

var (
	ErrNotEvent  = errors.New("telemetry: not an event frame")
	ErrMalformed = errors.New("telemetry: malformed event")
	ErrMissing   = errors.New("telemetry: missing field")
	ErrNonFinite = errors.New("telemetry: non-finite value")
)

// FrameError wraps a decoding failure with the offending frame.
type FrameError struct {
	Frame string
	Err   error
}

func (e *FrameError) Error() string {
	frame := e.Frame
	if len(frame) > 64 {
		frame = frame[:64] + "..."
	}
	return fmt.Sprintf("%v: %q", e.Err, frame)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Telemetry is the payload of a telemetry event.
type Telemetry struct {
	CTE           float64
	Speed         float64
	SteeringAngle float64
}

// Message is a decoded event frame. Manual is set when the simulator sent an
// event without data, which means the vehicle is under manual control.
type Message struct {
	Event     string
	Manual    bool
	Telemetry *Telemetry
}

// Extract returns the JSON array inside a frame. It reports false when the
// frame carries a null payload or no array at all.
func Extract(frame string) (string, bool) {
	if strings.Contains(frame, "null") {
		return "", false
	}
	b1 := strings.IndexByte(frame, '[')
	b2 := strings.LastIndexByte(frame, ']')
	if b1 < 0 || b2 < 0 || b2 < b1 {
		return "", false
	}
	return frame[b1 : b2+1], true
}

func Decode(frame []byte) (Message, error) {
	s := string(frame)
	if len(s) <= len(eventPrefix) || !strings.HasPrefix(s, eventPrefix) {
		return Message{}, ErrNotEvent
	}

	body, ok := Extract(s)
	if !ok {
		return Message{Manual: true}, nil
	}
	if !gjson.Valid(body) {
		return Message{}, &FrameError{Frame: s, Err: ErrMalformed}
	}

	arr := gjson.Parse(body).Array()
	if len(arr) == 0 || arr[0].Type != gjson.String {
		return Message{}, &FrameError{Frame: s, Err: ErrMalformed}
	}

	msg := Message{Event: arr[0].String()}
	if msg.Event != EventTelemetry {
		return msg, nil
	}
	if len(arr) < 2 || !arr[1].IsObject() {
		return Message{}, &FrameError{Frame: s, Err: ErrMalformed}
	}

	data := arr[1]
	var t Telemetry
	var err error
	if t.CTE, err = number(data, "cte"); err != nil {
		return Message{}, &FrameError{Frame: s, Err: err}
	}
	if t.Speed, err = number(data, "speed"); err != nil {
		return Message{}, &FrameError{Frame: s, Err: err}
	}
	if data.Get("steering_angle").Exists() {
		if t.SteeringAngle, err = number(data, "steering_angle"); err != nil {
			return Message{}, &FrameError{Frame: s, Err: err}
		}
	}
	msg.Telemetry = &t
	return msg, nil
}

// number reads a field the simulator may send either as a JSON number or as a
// numeric string.
func number(data gjson.Result, field string) (float64, error) {
	r := data.Get(field)
	if !r.Exists() {
		return 0, fmt.Errorf("%w: %s", ErrMissing, field)
	}
	switch r.Type {
	case gjson.Number:
		return r.Num, nil
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %s", ErrMalformed, field, r.Type)
	}
}

func EncodeSteer(steer, throttle float64) ([]byte, error) {
	if !finite(steer) || !finite(throttle) {
		return nil, fmt.Errorf("%w: steer=%v throttle=%v", ErrNonFinite, steer, throttle)
	}
	payload, err := sjson.Set("{}", "steering_angle", steer)
	if err != nil {
		return nil, err
	}
	payload, err = sjson.Set(payload, "throttle", throttle)
	if err != nil {
		return nil, err
	}
	return encode(EventSteer, payload), nil
}

func EncodeManual() []byte {
	return encode(EventManual, "{}")
}

// EncodeReset asks the simulator to put the vehicle back at the start.
func EncodeReset() []byte {
	return encode(EventReset, "{}")
}

func encode(event, payload string) []byte {
	return []byte(eventPrefix + `["` + event + `",` + payload + "]")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
