package ui

import (
	"fyne.io/fyne/v2"
)

// AppIcon is the icon file shipped next to the binary
const AppIcon = "storyviewer.png"

// LoadLogoResource returns the packaged app icon, falling back to the icon
// file in the working directory during development.
func LoadLogoResource() (fyne.Resource, error) {
	if app := fyne.CurrentApp(); app != nil {
		if icon := app.Metadata().Icon; icon != nil && len(icon.Content()) > 0 {
			return icon, nil
		}
	}
	return fyne.LoadResourceFromPath(AppIcon)
}
