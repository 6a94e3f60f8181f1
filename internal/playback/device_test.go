package playback_test

import (
	"context"
	"errors"
	"testing"

	"untethered/internal/logging"
	"untethered/internal/playback"
	"untethered/internal/services"
	"untethered/internal/services/mcws"
	"untethered/internal/testsupport"
)

func simOptions(sim *testsupport.Simulator) playback.Options {
	return playback.Options{
		Address:         sim.Address(),
		Username:        sim.Username,
		Password:        sim.Password,
		ChartName:       testsupport.DefaultChart,
		Zone:            0,
		PatchDuration:   1000,
		SleepMultiplier: 0,
	}
}

func TestDisplayPatchAgainstSimulator(t *testing.T) {
	sim := testsupport.NewSimulator(t, testsupport.WithCredentials("cal", "secret"), testsupport.WithActiveZone(1))
	engine := playback.NewForDevice(simOptions(sim), logging.NewNop())

	if err := engine.DisplayPatch(context.Background(), 4); err != nil {
		t.Fatalf("DisplayPatch() error = %v", err)
	}
	if !engine.Connected() {
		t.Fatal("expected session established")
	}
	name, stateCode, position, mode, osd := sim.Snapshot()
	if name != testsupport.DefaultChart || stateCode != 1 {
		t.Fatalf("expected chart paused, got %q state %d", name, stateCode)
	}
	if position != 4001 {
		t.Fatalf("position = %d, want 4001", position)
	}
	if mode != 2 || osd {
		t.Fatalf("expected fullscreen without overlay, got mode %d osd %v", mode, osd)
	}

	if err := engine.DisplayPatch(context.Background(), 5); err != nil {
		t.Fatalf("second DisplayPatch() error = %v", err)
	}
	if _, _, position, _, _ = sim.Snapshot(); position != 5001 {
		t.Fatalf("position = %d, want 5001", position)
	}
}

func TestHDRSelectsEpisode(t *testing.T) {
	sim := testsupport.NewSimulator(t)
	opts := simOptions(sim)
	opts.HDR = true
	engine := playback.NewForDevice(opts, logging.NewNop())

	if err := engine.EnsurePlaying(context.Background()); err != nil {
		t.Fatalf("EnsurePlaying() error = %v", err)
	}
	for _, req := range sim.Requests() {
		if req.Path == "Playback/PlayByKey" && req.Params.Get("Key") != "102" {
			t.Fatalf("expected hdr file key 102, got %q", req.Params.Get("Key"))
		}
	}
}

func TestAmbiguousChartAgainstSimulator(t *testing.T) {
	sim := testsupport.NewSimulator(t, testsupport.WithFiles(
		testsupport.SimFile{Key: "1", Name: testsupport.DefaultChart, Episode: "sdr"},
		testsupport.SimFile{Key: "2", Name: testsupport.DefaultChart, Episode: "sdr"},
	))
	engine := playback.NewForDevice(simOptions(sim), logging.NewNop())

	err := engine.DisplayPatch(context.Background(), 0)
	if !errors.Is(err, mcws.ErrNoMatchingFile) {
		t.Fatalf("expected no matching file, got %v", err)
	}
	if services.ExitCode(err) != services.ExitNotFound {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
	for _, path := range sim.Paths() {
		switch path {
		case "Authenticate", "Playback/Info", "Files/Search":
		default:
			t.Fatalf("unexpected command %s before failure", path)
		}
	}
}

func TestWrongCredentialsAgainstSimulator(t *testing.T) {
	sim := testsupport.NewSimulator(t, testsupport.WithCredentials("cal", "secret"))
	opts := simOptions(sim)
	opts.Password = "wrong"
	engine := playback.NewForDevice(opts, logging.NewNop())

	err := engine.EnsurePlaying(context.Background())
	if !errors.Is(err, mcws.ErrAuthenticationFailed) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if services.ExitCode(err) != services.ExitUnauthorized {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
	if engine.Connected() {
		t.Fatal("expected engine to stay disconnected")
	}
}

func TestStuckPositionAgainstSimulator(t *testing.T) {
	sim := testsupport.NewSimulator(t, testsupport.WithStuckPosition(0))
	engine := playback.NewForDevice(simOptions(sim), logging.NewNop())

	err := engine.DisplayPatch(context.Background(), 3)
	if !errors.Is(err, playback.ErrPositionUnattainable) {
		t.Fatalf("expected unattainable position, got %v", err)
	}
	if services.ExitCode(err) != services.ExitDevice {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
}

func TestMediaCenterIdleAgainstSimulator(t *testing.T) {
	sim := testsupport.NewSimulator(t, testsupport.WithIdleName("Media Center"))
	engine := playback.NewForDevice(simOptions(sim), logging.NewNop())

	err := engine.EnsurePlaying(context.Background())
	var convergence *playback.ConvergenceError
	if !errors.As(err, &convergence) {
		t.Fatalf("expected convergence error while the server is idle, got %v", err)
	}
	for _, path := range sim.Paths() {
		if path == "Playback/PlayByKey" {
			t.Fatal("expected no playback to start while backing off")
		}
	}

	if err := engine.DisplayPatch(context.Background(), 1); err != nil {
		t.Fatalf("DisplayPatch() error = %v", err)
	}
	if name, _, position, _, _ := sim.Snapshot(); name != testsupport.DefaultChart || position != 1001 {
		t.Fatalf("expected chart at 1001, got %q at %d", name, position)
	}
}
