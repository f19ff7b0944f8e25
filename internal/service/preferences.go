package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
)

// ExportFileName is the object name of an exported settings file.
const ExportFileName = "editorialchain-settings.json"

// PreferenceService reads and writes the theme and the settings object.
//
// Stored values are never trusted to match the current shape: an unknown
// theme reads as the default, and stored settings are decoded over a fresh
// copy of the defaults so fields added since the last save keep their
// default value.
type PreferenceService struct {
	store   repository.PreferenceStore
	archive repository.SettingsArchive // nil when object storage is not configured
	logger  *slog.Logger
}

func NewPreferenceService(store repository.PreferenceStore, archive repository.SettingsArchive, logger *slog.Logger) *PreferenceService {
	return &PreferenceService{store: store, archive: archive, logger: logger}
}

// GetTheme returns the stored theme, or the default when none (or an
// unknown value) is stored.
func (s *PreferenceService) GetTheme(ctx context.Context, uid string) (model.Theme, error) {
	v, err := s.store.GetPreference(ctx, uid, model.PrefKeyTheme)
	if errors.Is(err, apperror.ErrNotFound) {
		return model.DefaultTheme, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading theme: %w", err)
	}
	t := model.Theme(v)
	if !t.Valid() {
		return model.DefaultTheme, nil
	}
	return t, nil
}

func (s *PreferenceService) SetTheme(ctx context.Context, uid string, t model.Theme) error {
	if !t.Valid() {
		return apperror.ValidationFailed("theme",
			fmt.Sprintf("theme must be %q or %q", model.ThemeLight, model.ThemeDark))
	}
	if err := s.store.SetPreference(ctx, uid, model.PrefKeyTheme, string(t)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}

// ToggleTheme flips the theme and returns the new value.
func (s *PreferenceService) ToggleTheme(ctx context.Context, uid string) (model.Theme, error) {
	cur, err := s.GetTheme(ctx, uid)
	if err != nil {
		return "", err
	}
	next := cur.Toggle()
	if err := s.SetTheme(ctx, uid, next); err != nil {
		return "", err
	}
	return next, nil
}

// GetSettings returns the stored settings merged over the defaults.
// A stored value that is not valid JSON is logged and ignored.
func (s *PreferenceService) GetSettings(ctx context.Context, uid string) (model.Settings, error) {
	v, err := s.store.GetPreference(ctx, uid, model.PrefKeySettings)
	if errors.Is(err, apperror.ErrNotFound) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("reading settings: %w", err)
	}

	settings, err := decodeSettings([]byte(v))
	if err != nil {
		s.logger.Warn("stored settings are unreadable, using defaults",
			slog.String("uid", uid),
			slog.String("error", err.Error()),
		)
		return model.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *PreferenceService) SaveSettings(ctx context.Context, uid string, settings model.Settings) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.store.SetPreference(ctx, uid, model.PrefKeySettings, string(b)); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// ResetSettings removes the stored settings and returns the defaults.
func (s *PreferenceService) ResetSettings(ctx context.Context, uid string) (model.Settings, error) {
	err := s.store.DeletePreference(ctx, uid, model.PrefKeySettings)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return model.Settings{}, fmt.Errorf("resetting settings: %w", err)
	}
	return model.DefaultSettings(), nil
}

// ExportResult is what ExportSettings hands back to the caller.
type ExportResult struct {
	Location string // object key in the archive
	Data     []byte // the exported JSON
}

// ExportSettings writes the current settings as indented JSON to the
// archive. Without an archive it fails with apperror.ErrUnavailable.
func (s *PreferenceService) ExportSettings(ctx context.Context, uid string) (*ExportResult, error) {
	if s.archive == nil {
		return nil, apperror.Unavailable("settings export")
	}
	settings, err := s.GetSettings(ctx, uid)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}

	loc, err := s.archive.Put(ctx, uid, ExportFileName, data)
	if err != nil {
		return nil, fmt.Errorf("exporting settings: %w", err)
	}
	s.logger.Info("settings exported", slog.String("uid", uid), slog.String("location", loc))
	return &ExportResult{Location: loc, Data: data}, nil
}

// ImportSettings parses an uploaded settings file, merges it over the
// defaults and saves it.
func (s *PreferenceService) ImportSettings(ctx context.Context, uid string, data []byte) (model.Settings, error) {
	settings, err := decodeSettings(data)
	if err != nil {
		return model.Settings{}, apperror.ValidationFailed("settings", "Invalid settings file")
	}
	if err := s.SaveSettings(ctx, uid, settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// decodeSettings decodes data over the defaults. Settings has no theme
// field, so a "theme" key in data is dropped by the decoder.
func decodeSettings(data []byte) (model.Settings, error) {
	settings := model.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}
