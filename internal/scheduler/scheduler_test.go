package scheduler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/engine/discovery"
	"github.com/jobscout/jobscout/internal/jobs"
)

type stubPrefs struct {
	active []*jobs.Preferences
	err    error
}

func (s *stubPrefs) ListActive(_ context.Context) ([]*jobs.Preferences, error) {
	return s.active, s.err
}

type stubProfiles struct {
	profiles map[string]*jobs.Profile
}

func (s *stubProfiles) Get(_ context.Context, userID string) (*jobs.Profile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, jobs.ErrNotFound
}

type stubRunner struct {
	users []string
	opts  []discovery.Options
}

func (s *stubRunner) Run(_ context.Context, userID string, _ *jobs.Profile, _ *jobs.Preferences, opts discovery.Options) *discovery.Result {
	s.users = append(s.users, userID)
	s.opts = append(s.opts, opts)
	return &discovery.Result{}
}

func TestSweepRunsEveryActiveUser(t *testing.T) {
	prefs := &stubPrefs{active: []*jobs.Preferences{
		{UserID: "u1", Active: true},
		{UserID: "u2", Active: true},
	}}
	profiles := &stubProfiles{profiles: map[string]*jobs.Profile{
		"u1": {UserID: "u1"},
		"u2": {UserID: "u2"},
	}}
	runner := &stubRunner{}

	New(prefs, profiles, runner, 6, zap.NewNop()).sweep(context.Background())

	if len(runner.users) != 2 {
		t.Fatalf("ran for %d users, want 2", len(runner.users))
	}
	for _, opts := range runner.opts {
		if !opts.ForceRefresh {
			t.Error("scheduled sweeps must bypass the result cache")
		}
	}
}

func TestSweepSkipsUsersWithoutProfile(t *testing.T) {
	prefs := &stubPrefs{active: []*jobs.Preferences{
		{UserID: "u1", Active: true},
		{UserID: "ghost", Active: true},
	}}
	profiles := &stubProfiles{profiles: map[string]*jobs.Profile{"u1": {UserID: "u1"}}}
	runner := &stubRunner{}

	New(prefs, profiles, runner, 6, zap.NewNop()).sweep(context.Background())

	if len(runner.users) != 1 || runner.users[0] != "u1" {
		t.Errorf("ran for %v, want only u1", runner.users)
	}
}

func TestSweepStopsOnListFailure(t *testing.T) {
	prefs := &stubPrefs{err: errors.New("db down")}
	runner := &stubRunner{}

	New(prefs, &stubProfiles{}, runner, 6, zap.NewNop()).sweep(context.Background())

	if len(runner.users) != 0 {
		t.Errorf("ran for %v, want nobody when listing fails", runner.users)
	}
}
