package orchestrators

import (
	"context"
	"strings"

	"motoclub/internal/application/apperr"
	"motoclub/internal/domain/sitesetting"
	"motoclub/internal/logging"
)

// SettingsStore defines the store interface needed by the settings operations.
type SettingsStore interface {
	Get(ctx context.Context) (sitesetting.Settings, error)
	Set(ctx context.Context, s sitesetting.Settings) error
}

// SettingsDeps holds dependencies for the settings operations.
type SettingsDeps struct {
	SettingsStore SettingsStore
	Invalidator   Invalidator
}

// GetYearlyProgramURL returns the uploaded program document URL, or nil when none is set.
// POST: A store failure is reported as StoreUnavailable
func GetYearlyProgramURL(ctx context.Context, deps SettingsDeps) (*string, error) {
	s, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("settings_read_failed")
		return nil, apperr.Unavailable(err)
	}
	return s.YearlyProgramURL, nil
}

// SetYearlyProgramURLInput carries input for the orchestrator. An empty URL clears the value.
type SetYearlyProgramURLInput struct {
	URL string `json:"url" validate:"omitempty,url"`
}

// SetYearlyProgramURL stores (or clears) the program document URL.
// POST: GetYearlyProgramURL returns the new value
func SetYearlyProgramURL(ctx context.Context, input SetYearlyProgramURLInput, deps SettingsDeps) error {
	input.URL = strings.TrimSpace(input.URL)
	if err := checkInput(input); err != nil {
		return err
	}
	s, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("settings_read_failed")
		return apperr.Unavailable(err)
	}
	if input.URL == "" {
		s.YearlyProgramURL = nil
	} else {
		url := input.URL
		s.YearlyProgramURL = &url
	}
	if err := deps.SettingsStore.Set(ctx, s); err != nil {
		logging.Error().Err(err).Msg("settings_write_failed")
		return apperr.Unavailable(err)
	}

	invalidate(deps.Invalidator, ProgramViewPaths)
	logging.Info().Str("event", "yearly_program_url_set").Bool("cleared", s.YearlyProgramURL == nil).Msg("settings_event")
	return nil
}
