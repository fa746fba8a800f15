package main

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/config"
	"github.com/ytget/storyviewer/internal/download"
	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/metrics"
	"github.com/ytget/storyviewer/internal/platform"
	"github.com/ytget/storyviewer/internal/probe"
	"github.com/ytget/storyviewer/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID      = "com.ytget.storyviewer"
	AppName    = "Story Viewer"
	LogDirName = "logs"

	WindowWidth  = 420
	WindowHeight = 780
)

func main() {
	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewViewerTheme())

	settings := config.NewSettings(myApp)
	cacheDir := settings.GetCacheDirectory()

	logDir := filepath.Join(filepath.Dir(cacheDir), LogDirName)
	if err := logging.Setup(logDir, settings.GetLogLevel(), false); err != nil {
		fmt.Printf("failed to set up logging: %v\n", err)
	}
	logrus.WithField("version", version).Info("Story Viewer starting")

	metricsServer := metrics.Start(settings.GetMetricsAddress())
	defer metricsServer.Stop()

	if err := platform.CreateDirectoryIfNotExists(cacheDir); err != nil {
		logrus.WithError(err).WithField("dir", cacheDir).Error("failed to ensure cache dir")
	}
	cache := download.NewCache(cacheDir, download.NewHTTPFetcher(download.DefaultFetchTimeout), settings.GetMaxParallelFetches())
	if err := cache.Init(); err != nil {
		logrus.WithError(err).Fatal("failed to initialize media cache")
	}
	defer cache.Close()

	go func() {
		if _, err := cache.Purge(ui.PurgeOlderThan); err != nil {
			logrus.WithError(err).Warn("failed to purge media cache")
		}
	}()

	var prober *probe.Prober
	if settings.GetProbeMedia() {
		prober = probe.NewProber()
	}

	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	root := ui.NewRootUI(myWindow, myApp, settings, cache, prober)
	defer root.Close()

	myWindow.ShowAndRun()
}
