package playback

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"untethered/internal/services"
	"untethered/internal/services/mcws"
)

func TestDecide(t *testing.T) {
	chartStatus := func(state State) Status { return Status{FileName: testChart, State: state} }
	tests := []struct {
		name     string
		status   Status
		observed bool
		setup    bool
		suppress bool
		want     step
	}{
		{"nothing loaded", Status{}, false, true, false, step{actionStart, playbackSettle}},
		{"wrong zone", Status{FileName: testChart, State: StateWrongZone}, true, true, false, step{actionSetZone, zoneSettle}},
		{"no file name", Status{State: StateStopped}, true, true, false, step{actionStart, playbackSettle}},
		{"stopped", chartStatus(StateStopped), true, true, false, step{action: actionPlay}},
		{"playing", chartStatus(StatePlaying), true, true, false, step{action: actionPause}},
		{"paused needs setup", chartStatus(StatePaused), true, true, false, step{action: actionSetupDisplay}},
		{"paused converged", chartStatus(StatePaused), true, false, false, step{action: actionHold}},
		{"opening", chartStatus(StateOpening), true, false, false, step{actionAwaitLoad, loadBackoff}},
		{"waiting", chartStatus(StateWaiting), true, false, false, step{actionAwaitLoad, loadBackoff}},
		{"other label", chartStatus("Buffering"), true, false, false, step{actionBackoff, stateBackoff}},
		{"idle placeholder", Status{FileName: mediaCenterName, State: StateStopped}, true, false, false, step{actionBackoff, stateBackoff}},
		{"idle placeholder suppressed", Status{FileName: mediaCenterName, State: StateStopped}, true, false, true, step{actionRestart, playbackSettle}},
		{"other file", Status{FileName: "Trailer", State: StatePlaying}, true, false, false, step{actionRestart, playbackSettle}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decide(tt.status, tt.observed, testChart, tt.setup, tt.suppress)
			if got != tt.want {
				t.Fatalf("decide() = %+v (%s), want %+v (%s)", got, got.action, tt.want, tt.want.action)
			}
		})
	}
}

func TestEnsurePlayingFromStopped(t *testing.T) {
	gw := &fakeGateway{
		infos: []mcws.Response{stopped(), playing(), paused()},
		modes: []mcws.Response{mode(0), mode(2)},
	}
	h := newHarness(t, gw)

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	want := []string{"Playback/Play", "Playback/Pause", "Control/MCC", "UserInterface/OSD"}
	if got := gw.commandPaths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	cmds := gw.commands()
	if cmds[0].Params.Get("Zone") != "0" {
		t.Fatalf("expected zoned play, got %v", cmds[0].Params)
	}
	if cmds[1].Params.Get("State") != "1" {
		t.Fatalf("expected pause State=1, got %v", cmds[1].Params)
	}
	mcc := cmds[2].Params
	if mcc.Get("Command") != "22000" || mcc.Get("Parameter") != "2" || mcc.Get("Block") != "1" {
		t.Fatalf("unexpected fullscreen toggle %v", mcc)
	}
	if cmds[3].Params.Get("On") != "0" {
		t.Fatalf("expected overlay hidden, got %v", cmds[3].Params)
	}
	wantSleeps := []time.Duration{250 * time.Millisecond, 5 * time.Second}
	if !reflect.DeepEqual(h.sleeps, wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", h.sleeps, wantSleeps)
	}
	if h.engine.needsDisplaySetup {
		t.Fatal("expected display setup flag cleared")
	}
}

func TestEnsurePlayingActivatesWrongZone(t *testing.T) {
	gw := &fakeGateway{
		infos: []mcws.Response{info(1, 2, "Playing", testChart), paused()},
		modes: []mcws.Response{mode(2)},
	}
	h := newHarness(t, gw, func(o *Options) { o.SleepMultiplier = 2 })

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	cmds := gw.commands()
	if cmds[0].Path != "Playback/SetZone" || cmds[0].Params.Get("Zone") != "0" {
		t.Fatalf("expected zone activation first, got %+v", cmds[0])
	}
	if len(h.sleeps) == 0 || h.sleeps[0] != 500*time.Millisecond {
		t.Fatalf("expected 0.25s x 2 zone settle, got %v", h.sleeps)
	}
	if got := gw.commandPaths(); !reflect.DeepEqual(got, []string{"Playback/SetZone", "UserInterface/OSD"}) {
		t.Fatalf("commands = %v", got)
	}
}

func TestWrongZoneAlwaysActivatesZoneFirst(t *testing.T) {
	observations := []mcws.Response{
		info(3, 0, "Stopped", testChart),
		info(3, 2, "Playing", "Trailer"),
		info(3, 1, "Paused", testChart),
		info(3, 2, "Opening...", ""),
		info(3, 0, "", mediaCenterName),
	}
	for _, obs := range observations {
		gw := &fakeGateway{infos: []mcws.Response{obs}}
		h := newHarness(t, gw)
		err := h.engine.reconcile(context.Background(), 1, true)
		if !errors.Is(err, ErrConvergenceExhausted) {
			t.Fatalf("expected exhaustion with a stuck zone, got %v", err)
		}
		if got := gw.commandPaths(); !reflect.DeepEqual(got, []string{"Playback/SetZone"}) {
			t.Fatalf("commands = %v, want only zone activation", got)
		}
		if h.locator.calls != 0 {
			t.Fatalf("locator should not be consulted, got %d calls", h.locator.calls)
		}
	}
}

func TestEnsurePlayingIsIdempotentOnceConverged(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{paused()}, modes: []mcws.Response{mode(2)}}
	h := newHarness(t, gw)

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("first EnsurePlaying() error = %v", err)
	}
	before := len(gw.commands())
	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("second EnsurePlaying() error = %v", err)
	}
	if after := len(gw.commands()); after != before {
		t.Fatalf("second reconcile issued %d commands", after-before)
	}
	if gw.count("UserInterface/OSD") != 1 {
		t.Fatalf("expected display setup exactly once, got %d", gw.count("UserInterface/OSD"))
	}
}

func TestZeroBudgetFailsWithoutAction(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{stopped()}}
	h := newHarness(t, gw)

	err := h.engine.reconcile(context.Background(), 0, false)
	var convErr *ConvergenceError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConvergenceError, got %v", err)
	}
	if !errors.Is(err, ErrConvergenceExhausted) || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected classified exhaustion, got %v", err)
	}
	if convErr.Last.State != StateStopped || !convErr.Observed {
		t.Fatalf("expected last state carried, got %+v", convErr)
	}
	if cmds := gw.commands(); len(cmds) != 0 {
		t.Fatalf("expected no commands, got %v", cmds)
	}
}

func TestBudgetExhaustsAfterDefaultRetries(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{playing()}}
	h := newHarness(t, gw)

	err := h.engine.EnsurePlaying(context.Background())
	if !errors.Is(err, ErrConvergenceExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	if got := gw.count("Playback/Pause"); got != DefaultConvergeRetries {
		t.Fatalf("expected %d pauses, got %d", DefaultConvergeRetries, got)
	}
}

func TestOpeningRearmsDisplaySetup(t *testing.T) {
	gw := &fakeGateway{
		infos: []mcws.Response{info(0, 2, "Opening...", testChart), paused()},
		modes: []mcws.Response{mode(2)},
	}
	h := newHarness(t, gw)
	h.engine.needsDisplaySetup = false

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	if !reflect.DeepEqual(h.sleeps, []time.Duration{time.Second}) {
		t.Fatalf("sleeps = %v, want [1s]", h.sleeps)
	}
	if gw.count("UserInterface/OSD") != 1 {
		t.Fatal("expected display setup after reload")
	}
	if h.engine.needsDisplaySetup {
		t.Fatal("expected flag cleared after setup")
	}
}

func TestMediaCenterBacksOffWhenNotSuppressed(t *testing.T) {
	gw := &fakeGateway{
		infos: []mcws.Response{info(0, 0, "", mediaCenterName), paused()},
		modes: []mcws.Response{mode(2)},
	}
	h := newHarness(t, gw)

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	if h.locator.calls != 0 || gw.count("Playback/ClearPlaylist") != 0 {
		t.Fatal("expected backoff instead of restart")
	}
	if h.sleeps[0] != 500*time.Millisecond {
		t.Fatalf("expected 0.5s backoff, got %v", h.sleeps)
	}
}

func TestSuppressionAppliesToFirstPollOnly(t *testing.T) {
	idle := info(0, 0, "", mediaCenterName)
	gw := &fakeGateway{
		infos: []mcws.Response{idle, idle, paused()},
		modes: []mcws.Response{mode(2)},
	}
	h := newHarness(t, gw)

	if err := h.engine.reconcile(context.Background(), DefaultConvergeRetries, true); err != nil {
		t.Fatalf("reconcile() error = %v", err)
	}
	want := []string{"Playback/ClearPlaylist", "Playback/PlayByKey", "UserInterface/OSD"}
	if got := gw.commandPaths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	wantSleeps := []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}
	if !reflect.DeepEqual(h.sleeps, wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", h.sleeps, wantSleeps)
	}
	if key := gw.commands()[1].Params.Get("Key"); key != "42" {
		t.Fatalf("expected PlayByKey with located key, got %q", key)
	}
}

func TestOtherFileLocatesBeforeStopping(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{info(0, 2, "Playing", "Trailer"), paused()}, modes: []mcws.Response{mode(2)}}
	h := newHarness(t, gw)
	var commandsAtLookup int
	h.locator.onFind = func() { commandsAtLookup = len(gw.commands()) }

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	if commandsAtLookup != 0 {
		t.Fatalf("expected lookup before ClearPlaylist, saw %d commands first", commandsAtLookup)
	}
	if got := gw.commandPaths()[:2]; !reflect.DeepEqual(got, []string{"Playback/ClearPlaylist", "Playback/PlayByKey"}) {
		t.Fatalf("commands = %v", got)
	}
}

func TestAmbiguousChartIssuesNoPlaybackCommand(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{info(0, 2, "Playing", "Trailer")}}
	h := newHarness(t, gw)
	h.locator.err = noMatch()

	err := h.engine.EnsurePlaying(context.Background())
	if !errors.Is(err, mcws.ErrNoMatchingFile) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected no matching file, got %v", err)
	}
	if cmds := gw.commands(); len(cmds) != 0 {
		t.Fatalf("expected no playback commands, got %v", cmds)
	}
}

func TestNothingLoadedStartsWithoutClearing(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{failedResponse(), paused()}, modes: []mcws.Response{mode(2)}}
	h := newHarness(t, gw)

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	if got := gw.commandPaths(); !reflect.DeepEqual(got, []string{"Playback/PlayByKey", "UserInterface/OSD"}) {
		t.Fatalf("commands = %v", got)
	}
}

func TestIgnoreZoneOmitsZoneParameter(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{info(4, 0, "Stopped", testChart), info(4, 1, "Paused", testChart)}, modes: []mcws.Response{mode(2)}}
	h := newHarness(t, gw, func(o *Options) { o.Zone = IgnoreZone })

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	for _, c := range gw.commands() {
		if c.Params.Has("Zone") {
			t.Fatalf("unexpected zone on %s: %v", c.Path, c.Params)
		}
	}
	if gw.count("Playback/SetZone") != 0 {
		t.Fatal("ignored zone must never be activated")
	}
}

func TestFullscreenFailureIsNotFatal(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{paused()}, modes: []mcws.Response{mode(0)}}
	h := newHarness(t, gw)

	if err := h.engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	if gw.count("Control/MCC") != 1 {
		t.Fatalf("expected a single toggle, got %d", gw.count("Control/MCC"))
	}
	if gw.count("UserInterface/OSD") != 1 {
		t.Fatal("expected overlay hidden regardless")
	}
	if h.engine.needsDisplaySetup {
		t.Fatal("expected flag cleared after setup attempt")
	}
}

func TestAuthenticationFailureSurfaces(t *testing.T) {
	authErr := services.Wrap(services.ErrUnauthorized, "mcws", "authenticate", "status 401", mcws.ErrAuthenticationFailed)
	gw := &fakeGateway{authErr: authErr}
	h := newHarness(t, gw)

	err := h.engine.EnsurePlaying(context.Background())
	if !errors.Is(err, mcws.ErrAuthenticationFailed) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("expected to stop after the first call, got %d", len(gw.calls))
	}
}

func TestCancelledContextStopsReconcile(t *testing.T) {
	gw := &fakeGateway{infos: []mcws.Response{stopped()}}
	h := newHarness(t, gw)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.engine.EnsurePlaying(ctx)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("expected no calls, got %v", gw.calls)
	}
}
