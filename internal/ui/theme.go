package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Custom color names used by the viewer
const (
	ColorNameBackdrop  fyne.ThemeColorName = "viewerBackdrop"
	ColorNameScrubFill fyne.ThemeColorName = "viewerScrubFill"
	ColorNameScrubRest fyne.ThemeColorName = "viewerScrubRest"
)

// ViewerTheme is a compact theme with the dark viewer palette
type ViewerTheme struct{}

// NewViewerTheme creates the viewer theme
func NewViewerTheme() fyne.Theme {
	return &ViewerTheme{}
}

// Color returns theme colors
func (t *ViewerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case ColorNameBackdrop:
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	case ColorNameScrubFill:
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	case ColorNameScrubRest:
		return color.NRGBA{R: 255, G: 255, B: 255, A: 90}
	case theme.ColorNameError:
		return color.RGBA{R: 183, G: 28, B: 28, A: 255}
	case theme.ColorNamePrimary:
		return color.RGBA{R: 233, G: 30, B: 99, A: 255} // story ring pink
	case theme.ColorNameBackground:
		if variant == theme.VariantDark {
			return color.RGBA{R: 18, G: 18, B: 18, A: 255}
		}
		return color.RGBA{R: 250, G: 250, B: 250, A: 255}
	}

	return theme.DefaultTheme().Color(name, variant)
}

// Font returns theme fonts
func (t *ViewerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

// Icon returns theme icons
func (t *ViewerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

// Size returns theme sizes with compact adjustments
func (t *ViewerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameText:
		return 13
	case theme.SizeNameCaptionText:
		return 10
	case theme.SizeNameInputRadius:
		return 3
	}

	return theme.DefaultTheme().Size(name)
}

// themeColor resolves a color of the current app theme
func themeColor(name fyne.ThemeColorName) color.Color {
	app := fyne.CurrentApp()
	if app == nil {
		return NewViewerTheme().Color(name, theme.VariantDark)
	}
	return app.Settings().Theme().Color(name, app.Settings().ThemeVariant())
}
