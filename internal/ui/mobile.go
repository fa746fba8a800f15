package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// MobileUI provides mobile-specific UI adjustments
type MobileUI struct {
	app fyne.App
}

// NewMobileUI creates a new mobile UI helper
func NewMobileUI(app fyne.App) *MobileUI {
	return &MobileUI{app: app}
}

// IsMobileDevice checks if the app is running on a mobile device
func (m *MobileUI) IsMobileDevice() bool {
	device := fyne.CurrentDevice()
	return device != nil && device.IsMobile()
}

// ThumbnailSize returns the feed tile edge for the current device
func (m *MobileUI) ThumbnailSize() float32 {
	if m.IsMobileDevice() {
		return MobileThumbnailSize
	}
	return ThumbnailSize
}

// CreateMobileEntry creates an entry field; on mobile the virtual keyboard
// submits with the action key instead of a separate button press.
func (m *MobileUI) CreateMobileEntry(placeholder string, onSubmit func(string)) *widget.Entry {
	entry := widget.NewEntry()
	entry.SetPlaceHolder(placeholder)
	entry.OnSubmitted = onSubmit
	return entry
}

// GetMobilePadding returns appropriate padding for mobile devices
func (m *MobileUI) GetMobilePadding() float32 {
	if m.IsMobileDevice() {
		return 20
	}
	return 10
}

// IsLandscape returns true if device is in landscape orientation
func (m *MobileUI) IsLandscape() bool {
	orientation := fyne.CurrentDevice().Orientation()
	return orientation == fyne.OrientationHorizontalLeft || orientation == fyne.OrientationHorizontalRight
}
