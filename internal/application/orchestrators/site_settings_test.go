package orchestrators

import (
	"context"
	"errors"
	"testing"

	"motoclub/internal/application/apperr"
	"motoclub/internal/domain/sitesetting"
)

type mockSettingsStore struct {
	s   sitesetting.Settings
	err error
}

func (m *mockSettingsStore) Get(_ context.Context) (sitesetting.Settings, error) {
	return m.s, m.err
}

func (m *mockSettingsStore) Set(_ context.Context, s sitesetting.Settings) error {
	if m.err != nil {
		return m.err
	}
	m.s = s
	return nil
}

func TestYearlyProgramURL_RoundTrip(t *testing.T) {
	store := &mockSettingsStore{}
	inv := &recordingInvalidator{}
	deps := SettingsDeps{SettingsStore: store, Invalidator: inv}
	ctx := context.Background()

	got, err := GetYearlyProgramURL(ctx, deps)
	if err != nil || got != nil {
		t.Fatalf("initial = %v, %v; want nil, nil", got, err)
	}

	if err := SetYearlyProgramURL(ctx, SetYearlyProgramURLInput{URL: " https://cdn.example.it/p.pdf "}, deps); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ = GetYearlyProgramURL(ctx, deps)
	if got == nil || *got != "https://cdn.example.it/p.pdf" {
		t.Errorf("url = %v", got)
	}
	if !inv.invalidated("/program") {
		t.Error("expected /program invalidation")
	}

	if err := SetYearlyProgramURL(ctx, SetYearlyProgramURLInput{}, deps); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ = GetYearlyProgramURL(ctx, deps); got != nil {
		t.Errorf("url after clear = %q", *got)
	}
}

func TestYearlyProgramURL_Errors(t *testing.T) {
	ctx := context.Background()
	err := SetYearlyProgramURL(ctx, SetYearlyProgramURLInput{URL: "programma"}, SettingsDeps{SettingsStore: &mockSettingsStore{}})
	if !apperr.IsKind(err, apperr.ValidationFailure) {
		t.Errorf("bad url err = %v", err)
	}

	down := SettingsDeps{SettingsStore: &mockSettingsStore{err: errors.New("badger closed")}}
	if _, err := GetYearlyProgramURL(ctx, down); !apperr.IsKind(err, apperr.StoreUnavailable) {
		t.Errorf("get err = %v, want StoreUnavailable", err)
	}
}
