package ui

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/config"
	"github.com/ytget/storyviewer/internal/download"
	"github.com/ytget/storyviewer/internal/events"
	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/model"
	"github.com/ytget/storyviewer/internal/platform"
	"github.com/ytget/storyviewer/internal/probe"
	"github.com/ytget/storyviewer/internal/viewer"
)

// RootUI represents the main UI structure
type RootUI struct {
	window       fyne.Window
	settings     *config.Settings
	localization *Localization
	mobile       *MobileUI

	sourceEntry *widget.Entry
	loadBtn     *widget.Button
	feed        *Feed
	overlay     *Overlay
	viewport    *fyne.Container

	engine    *viewer.Engine
	cache     *download.Cache
	playlists *platform.PlaylistSource
	events    *events.Subscription

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite
	notificationSeq       int

	loadMutex  sync.Mutex
	loadCancel context.CancelFunc

	log *logrus.Entry
}

// NewRootUI creates and initializes the main UI. prober may be nil.
func NewRootUI(window fyne.Window, app fyne.App, settings *config.Settings, cache *download.Cache, prober *probe.Prober) *RootUI {
	localization := NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	ui := &RootUI{
		window:       window,
		settings:     settings,
		localization: localization,
		mobile:       NewMobileUI(app),
		cache:        cache,
		playlists:    platform.NewPlaylistSource(),
		log:          logging.Component(nil, "ui"),
	}

	ui.feed = NewFeed(ui.mobile.ThumbnailSize())
	ui.engine = viewer.NewEngine(cache, ui.feed, nil, settings.EngineOptions())
	if prober != nil {
		ui.engine.SetProber(prober)
	}
	ui.overlay = NewOverlay(localization, ui.engine.Loop(), ui.engine.Progress(), ui.engine.Retry, ui.onClose)

	ui.feed.SetCallbacks(FeedCallbacks{
		Visible: ui.engine.Visible,
		Hidden:  ui.engine.Hidden,
		Open:    ui.onOpen,
		Source:  ui.engine.Source,
		Status:  ui.engine.Status,
	})
	ui.wireEngine()

	window.SetTitle(localization.GetText(KeyAppTitle))
	ui.setupUI()

	ui.engine.Start()
	ui.events = ui.engine.Events()
	go ui.watchEvents(ui.events)
	return ui
}

// Engine exposes the viewer engine
func (ui *RootUI) Engine() *viewer.Engine {
	return ui.engine
}

// Close stops the engine and every background load
func (ui *RootUI) Close() {
	ui.loadMutex.Lock()
	if ui.loadCancel != nil {
		ui.loadCancel()
	}
	ui.loadMutex.Unlock()

	ui.events.Close()
	ui.engine.Stop()
}

// wireEngine routes engine callbacks onto the UI goroutine
func (ui *RootUI) wireEngine() {
	ui.engine.SetRenderer(ui.overlay.Apply)

	ui.engine.SetStatusObserver(func(status model.LoadStatus) {
		source := ui.engine.Source(status.ItemID)
		fyne.Do(func() {
			ui.feed.StatusChanged(status)
			ui.overlay.SetStatus(status, source)
		})
	})

	ui.engine.SetFocusObserver(func(ref model.MediaRef) {
		source := ui.engine.Source(ref.ID)
		status := ui.engine.Status(ref.ID)
		fyne.Do(func() {
			ui.overlay.ShowItem(ref, source, status)
			ui.feed.Reveal(ref.ID)
		})
	})

	ui.engine.Progress().SetObserver(func(state model.ProgressState) {
		fyne.Do(func() { ui.overlay.SetProgress(state) })
	})
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.sourceEntry = ui.mobile.CreateMobileEntry(ui.localization.GetText(KeyEnterSource), func(string) {
		ui.onLoadClick()
	})
	ui.sourceEntry.Validator = ui.validateSource

	ui.loadBtn = widget.NewButton(ui.localization.GetText(KeyLoad), ui.onLoadClick)

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	left := container.NewHBox(settingsBtn)
	if logo, err := LoadLogoResource(); err == nil {
		logoImage := canvas.NewImageFromResource(logo)
		logoImage.SetMinSize(fyne.NewSize(32, 32))
		logoImage.FillMode = canvas.ImageFillContain
		left = container.NewHBox(logoImage, settingsBtn)
	}
	topPanel := container.NewBorder(nil, nil, left, ui.loadBtn, ui.sourceEntry)

	// Notification panel under the source input (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Alignment = fyne.TextAlignLeading
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewHBox(ui.notificationSpinner, container.NewPadded(ui.notificationLabel))
	ui.notificationContainer.Hide()

	topCombined := container.NewVBox(topPanel, ui.notificationContainer)
	page := container.NewBorder(topCombined, nil, nil, nil, ui.feed)

	// the overlay spans the whole window; rects are measured against it
	ui.viewport = container.New(&viewportLayout{onResize: ui.engine.SetViewport}, page, ui.overlay)
	ui.feed.SetOrigin(ui.viewport)

	ui.window.SetContent(ui.viewport)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem(ui.localization.GetText(KeySettings), ui.onShowSettings)
	clearItem := fyne.NewMenuItem(ui.localization.GetText(KeyClearCache), ui.onClearCache)

	languageMenu := fyne.NewMenu(ui.localization.GetText(KeyLanguage))
	for code, name := range ui.localization.GetAvailableLanguages() {
		langCode := code
		langItem := fyne.NewMenuItem(name, func() {
			ui.onLanguageChange(langCode)
		})
		if ui.localization.GetCurrentLanguage() == code {
			langItem.Checked = true
		}
		languageMenu.Items = append(languageMenu.Items, langItem)
	}

	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu(ui.localization.GetText(KeyFile), settingsItem, clearItem),
		languageMenu,
	)
	ui.window.SetMainMenu(mainMenu)
}

// onLanguageChange handles language change
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	ui.settings.SetLanguage(langCode)
	ui.refreshUITexts()
	ui.createMenu()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	ui.window.SetTitle(ui.localization.GetText(KeyAppTitle))
	ui.sourceEntry.SetPlaceHolder(ui.localization.GetText(KeyEnterSource))
	ui.loadBtn.SetText(ui.localization.GetText(KeyLoad))
	ui.overlay.RefreshTexts()
}

// validateSource accepts an http(s) URL or an existing file
func (ui *RootUI) validateSource(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if _, err := os.Stat(input); err == nil {
		return nil
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return err
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	return nil
}

// onLoadClick loads the entered source into the feed
func (ui *RootUI) onLoadClick() {
	source := cleanInput(ui.sourceEntry.Text)
	if source == "" {
		ui.showNotification(ui.localization.GetText(KeyPleaseEnterSource), false)
		return
	}
	if err := ui.validateSource(source); err != nil {
		ui.showNotification(ui.localization.GetText(KeyInvalidURL)+": "+err.Error(), false)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ui.loadMutex.Lock()
	if ui.loadCancel != nil {
		ui.loadCancel()
	}
	ui.loadCancel = cancel
	ui.loadMutex.Unlock()

	ui.showNotification(ui.localization.GetText(KeyLoadingFeed), true)
	ui.log.WithField("source", source).Info("Loading feed")

	go func() {
		refs, err := ui.resolveSource(ctx, source)
		if ctx.Err() != nil {
			return
		}
		fyne.Do(func() {
			if err != nil {
				ui.log.WithError(err).WithField("source", source).Warn("Feed failed to load")
				ui.showNotification(ui.localization.GetText(KeyFeedFailed)+": "+err.Error(), false)
				return
			}
			ui.setFeed(refs)
			ui.sourceEntry.SetText("")
			ui.showNotification(fmt.Sprintf("%s (%d)", ui.localization.GetText(KeyFeedLoaded), len(refs)), false)
		})
	}()
}

// resolveSource turns the entered text into media references: a playlist
// URL, a local file with one URL per line, or a single media URL.
func (ui *RootUI) resolveSource(ctx context.Context, source string) ([]model.MediaRef, error) {
	if strings.Contains(source, PlaylistQueryParam) {
		return ui.playlists.Load(ctx, source)
	}
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return platform.ReadURLList(f)
	}
	return platform.ReadURLList(strings.NewReader(source))
}

// setFeed hands a new feed to both the engine and the grid
func (ui *RootUI) setFeed(refs []model.MediaRef) {
	ui.engine.SetItems(refs)
	ui.feed.SetItems(refs)
}

// onOpen runs off the UI goroutine because the engine measures the feed
func (ui *RootUI) onOpen(itemID string) {
	go func() {
		if !ui.engine.Open(itemID) {
			ui.log.WithField("item", itemID).Debug("Open ignored")
		}
	}()
}

func (ui *RootUI) onClose() {
	go ui.engine.Close()
}

// watchEvents logs engine events and surfaces failures
func (ui *RootUI) watchEvents(sub *events.Subscription) {
	for ev := range sub.C {
		entry := ui.log.WithFields(logrus.Fields{"item": ev.ItemID, "event": ev.String()})
		switch ev.Kind {
		case model.EventTimeout:
			if ev.Err != nil {
				entry = entry.WithError(ev.Err)
			}
			entry.Warn("Item did not load")
		case model.EventDismissed:
			entry.Info("Viewer dismissed")
		default:
			entry.Debug("Viewer event")
		}
	}
}

// onClearCache removes every mirrored file
func (ui *RootUI) onClearCache() {
	before, _ := ui.cache.SizeHint()
	removed, err := ui.cache.Purge(0)
	if err != nil {
		dialog.ShowError(err, ui.window)
		return
	}
	ui.showNotification(fmt.Sprintf("%s: %d (%s)", ui.localization.GetText(KeyCacheCleared), removed, humanize.Bytes(uint64(before))), false)
}

// showNotification displays a message in the notification panel under the source input.
// When spinning is true, a spinner is shown to indicate background activity.
func (ui *RootUI) showNotification(message string, spinning bool) {
	if ui.notificationLabel == nil {
		return
	}
	ui.notificationLabel.SetText(message)
	if spinning {
		ui.notificationSpinner.Show()
		ui.notificationSpinner.Start()
	} else {
		ui.notificationSpinner.Stop()
		ui.notificationSpinner.Hide()
	}
	ui.notificationContainer.Show()
	ui.notificationContainer.Refresh()

	ui.notificationSeq++
	if !spinning {
		seq := ui.notificationSeq
		time.AfterFunc(NotificationAutoHide, func() {
			fyne.Do(func() { ui.hideNotification(seq) })
		})
	}
}

// hideNotification hides the panel unless a newer message replaced it
func (ui *RootUI) hideNotification(seq int) {
	if seq != ui.notificationSeq {
		return
	}
	ui.notificationSpinner.Hide()
	ui.notificationContainer.Hide()
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	size, err := ui.cache.SizeHint()
	if err != nil {
		size = 0
	}
	NewSettingsDialog(ui.settings, ui.localization, ui.window, humanize.Bytes(uint64(size)), func() {
		if lvl, err := logrus.ParseLevel(ui.settings.GetLogLevel()); err == nil {
			logrus.SetLevel(lvl)
		}
		ui.showNotification(ui.localization.GetText(KeySettingsSaved), false)
	}).Show()
}

// cleanInput strips characters that break display of a pasted URL
func cleanInput(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}

// viewportLayout stacks every object over the full size and reports size
// changes so the overlay knows its full-screen bounds.
type viewportLayout struct {
	onResize func(width, height float32)
	last     fyne.Size
}

func (l *viewportLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if size != l.last {
		l.last = size
		if l.onResize != nil {
			l.onResize(size.Width, size.Height)
		}
	}
}

func (l *viewportLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var size fyne.Size
	for _, o := range objects {
		if !o.Visible() {
			continue
		}
		size = size.Max(o.MinSize())
	}
	return size
}
