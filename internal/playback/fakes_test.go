package playback

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"untethered/internal/logging"
	"untethered/internal/services"
	"untethered/internal/services/mcws"
)

const testChart = "Patches"

type recordedCall struct {
	Path   string
	Params url.Values
}

// fakeGateway replays scripted answers per query path. The last scripted
// answer repeats once the script is exhausted.
type fakeGateway struct {
	infos     []mcws.Response
	positions []mcws.Response
	modes     []mcws.Response
	authErr   error
	calls     []recordedCall
}

func (f *fakeGateway) Call(_ context.Context, path string, params url.Values) (mcws.Response, error) {
	f.calls = append(f.calls, recordedCall{Path: path, Params: params})
	if f.authErr != nil {
		return mcws.Response{Outcome: mcws.OutcomeTransport, Err: f.authErr}, f.authErr
	}
	switch {
	case path == "Playback/Info":
		return next(&f.infos), nil
	case path == "UserInterface/Info":
		return next(&f.modes), nil
	case path == "Playback/Position" && params.Get("Position") == "":
		return next(&f.positions), nil
	default:
		return okResponse(), nil
	}
}

func (f *fakeGateway) Connected() bool { return f.authErr == nil && len(f.calls) > 0 }

func next(script *[]mcws.Response) mcws.Response {
	if len(*script) == 0 {
		return mcws.Response{Outcome: mcws.OutcomeFailed, Status: "Failure"}
	}
	resp := (*script)[0]
	if len(*script) > 1 {
		*script = (*script)[1:]
	}
	return resp
}

// commands returns the non-query calls in order.
func (f *fakeGateway) commands() []recordedCall {
	var out []recordedCall
	for _, c := range f.calls {
		switch {
		case c.Path == "Playback/Info", c.Path == "UserInterface/Info":
			continue
		case c.Path == "Playback/Position" && c.Params.Get("Position") == "":
			continue
		}
		out = append(out, c)
	}
	return out
}

func (f *fakeGateway) commandPaths() []string {
	var out []string
	for _, c := range f.commands() {
		out = append(out, c.Path)
	}
	return out
}

func (f *fakeGateway) count(path string) int {
	n := 0
	for _, c := range f.commands() {
		if c.Path == path {
			n++
		}
	}
	return n
}

type fakeLocator struct {
	key   string
	err   error
	calls int
	// onFind runs before answering so tests can observe call ordering.
	onFind func()
}

func (l *fakeLocator) FindFileKey(_ context.Context, chart, episode string) (string, error) {
	l.calls++
	if l.onFind != nil {
		l.onFind()
	}
	if l.err != nil {
		return "", l.err
	}
	return l.key, nil
}

func okResponse(fields ...mcws.Field) mcws.Response {
	return mcws.Response{Outcome: mcws.OutcomeOK, Status: "OK", Fields: fields}
}

func failedResponse() mcws.Response {
	return mcws.Response{Outcome: mcws.OutcomeFailed, Status: "Failure"}
}

func info(zone, code int, label, name string) mcws.Response {
	fields := []mcws.Field{
		{Name: "ZoneID", Value: strconv.Itoa(zone)},
		{Name: "State", Value: strconv.Itoa(code)},
		{Name: "FileKey", Value: "42"},
		{Name: "Name", Value: name},
	}
	if label != "" {
		fields = append(fields, mcws.Field{Name: "Status", Value: label})
	}
	return okResponse(fields...)
}

func stopped() mcws.Response { return info(0, 0, "Stopped", testChart) }
func playing() mcws.Response { return info(0, 2, "Playing", testChart) }
func paused() mcws.Response  { return info(0, 1, "Paused", testChart) }

func position(p int) mcws.Response {
	return okResponse(mcws.Field{Name: "Position", Value: strconv.Itoa(p)})
}

func mode(m int) mcws.Response {
	return okResponse(mcws.Field{Name: "Mode", Value: strconv.Itoa(m)}, mcws.Field{Name: "InternalMode", Value: "0"})
}

type harness struct {
	engine  *Engine
	gw      *fakeGateway
	locator *fakeLocator
	sleeps  []time.Duration
}

func newHarness(t *testing.T, gw *fakeGateway, mutate ...func(*Options)) *harness {
	t.Helper()
	opts := Options{
		Address:         "10.0.0.5:52199",
		ChartName:       testChart,
		Zone:            0,
		PatchDuration:   5,
		SleepMultiplier: 1,
		DisplayPauseMS:  5000,
		PatchPauseMS:    300,
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	h := &harness{gw: gw, locator: &fakeLocator{key: "42"}}
	h.engine = New(opts, gw, h.locator, logging.NewNop())
	h.engine.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return h
}

func noMatch() error {
	return services.Wrap(services.ErrNotFound, "mcws", "search", "2 matches", mcws.ErrNoMatchingFile)
}
