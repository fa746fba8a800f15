package ui

import (
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/storyviewer/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings     *config.Settings
	localization *Localization
	window       fyne.Window
	dialog       *dialog.ConfirmDialog
	onSaved      func()

	// UI components
	cacheDirEntry      *widget.Entry
	cacheSizeLabel     *widget.Label
	maxParallelEntry   *widget.Entry
	slideDurationEntry *widget.Entry
	loadTimeoutEntry   *widget.Entry
	swipeRightCheck    *widget.Check
	probeCheck         *widget.Check
	logLevelSelect     *widget.Select
	languageSelect     *widget.Select
}

// NewSettingsDialog creates a new settings dialog. cacheSize is the
// human-readable size of the media cache.
func NewSettingsDialog(settings *config.Settings, localization *Localization, window fyne.Window, cacheSize string, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:     settings,
		localization: localization,
		window:       window,
		onSaved:      onSaved,
	}

	sd.createUI(cacheSize)
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI(cacheSize string) {
	t := sd.localization.GetText

	sd.cacheDirEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(t(KeyBrowse), sd.onBrowseDirectory)
	cacheDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.cacheDirEntry)
	sd.cacheSizeLabel = widget.NewLabel(t(KeyCacheSize) + ": " + cacheSize)

	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder("1-10")

	sd.slideDurationEntry = widget.NewEntry()
	sd.loadTimeoutEntry = widget.NewEntry()

	sd.swipeRightCheck = widget.NewCheck(t(KeySwipeRightNext), nil)
	sd.probeCheck = widget.NewCheck(t(KeyProbeMedia), nil)

	sd.logLevelSelect = widget.NewSelect(config.LogLevels, nil)

	languageOptions := []string{}
	for code := range sd.settings.GetLanguageOptions() {
		languageOptions = append(languageOptions, code)
	}
	sd.languageSelect = widget.NewSelect(languageOptions, nil)

	form := container.NewVBox(
		widget.NewLabel(t(KeyCacheDirectory)+":"),
		cacheDirRow,
		sd.cacheSizeLabel,

		widget.NewLabel(t(KeyMaxParallel)+":"),
		sd.maxParallelEntry,

		widget.NewSeparator(),

		widget.NewLabel(t(KeySlideDuration)+":"),
		sd.slideDurationEntry,

		widget.NewLabel(t(KeyLoadTimeout)+":"),
		sd.loadTimeoutEntry,

		sd.swipeRightCheck,
		sd.probeCheck,

		widget.NewSeparator(),

		widget.NewLabel(t(KeyLogLevel)+":"),
		sd.logLevelSelect,

		widget.NewLabel(t(KeyLanguage)+":"),
		sd.languageSelect,
	)

	sd.dialog = dialog.NewCustomConfirm(
		t(KeySettings),
		t(KeySave),
		t(KeyCancel),
		container.NewVScroll(form),
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(500, 520))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.cacheDirEntry.SetText(sd.settings.GetCacheDirectory())
	sd.maxParallelEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallelFetches()))
	sd.slideDurationEntry.SetText(strconv.FormatInt(sd.settings.GetSlideDuration().Milliseconds(), 10))
	sd.loadTimeoutEntry.SetText(strconv.FormatInt(sd.settings.GetLoadTimeout().Milliseconds(), 10))
	sd.swipeRightCheck.SetChecked(sd.settings.GetSwipeRightAdvances())
	sd.probeCheck.SetChecked(sd.settings.GetProbeMedia())
	sd.logLevelSelect.SetSelected(sd.settings.GetLogLevel())
	sd.languageSelect.SetSelected(sd.settings.GetLanguage())
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.cacheDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings. Engine timings apply on next start.
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := sd.cacheDirEntry.Text; dir != "" {
		sd.settings.SetCacheDirectory(dir)
	}

	if maxParallel, err := strconv.Atoi(sd.maxParallelEntry.Text); err == nil {
		sd.settings.SetMaxParallelFetches(maxParallel)
	}

	if ms, err := strconv.Atoi(sd.slideDurationEntry.Text); err == nil {
		sd.settings.SetSlideDuration(time.Duration(ms) * time.Millisecond)
	}

	if ms, err := strconv.Atoi(sd.loadTimeoutEntry.Text); err == nil {
		sd.settings.SetLoadTimeout(time.Duration(ms) * time.Millisecond)
	}

	sd.settings.SetSwipeRightAdvances(sd.swipeRightCheck.Checked)
	sd.settings.SetProbeMedia(sd.probeCheck.Checked)

	if sd.logLevelSelect.Selected != "" {
		sd.settings.SetLogLevel(sd.logLevelSelect.Selected)
	}

	if sd.languageSelect.Selected != "" {
		sd.settings.SetLanguage(sd.languageSelect.Selected)
	}

	if sd.onSaved != nil {
		sd.onSaved()
	}
}
