package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/storyviewer/internal/model"
)

// LoadingIndicator mirrors one item's LoadStatus: an infinite progress bar
// while the spinner is visible, a retry button once the automatic retry is
// spent, nothing otherwise.
type LoadingIndicator struct {
	widget.BaseWidget

	localization *Localization
	spinner      *widget.ProgressBarInfinite
	message      *widget.Label
	retryBtn     *widget.Button
	content      *fyne.Container

	status  model.LoadStatus
	onRetry func(itemID string)
}

// NewLoadingIndicator creates a hidden indicator
func NewLoadingIndicator(localization *Localization, onRetry func(itemID string)) *LoadingIndicator {
	li := &LoadingIndicator{localization: localization, onRetry: onRetry}
	li.ExtendBaseWidget(li)

	li.spinner = widget.NewProgressBarInfinite()
	li.spinner.Stop()
	li.spinner.Hide()
	li.message = widget.NewLabel(localization.GetText(KeyLoadFailed))
	li.message.Alignment = fyne.TextAlignCenter
	li.message.Hide()
	li.retryBtn = widget.NewButton(IconRetry+" "+localization.GetText(KeyRetry), li.retry)
	li.retryBtn.Importance = widget.HighImportance
	li.retryBtn.Hide()
	li.content = container.NewCenter(container.NewVBox(li.spinner, li.message, li.retryBtn))
	return li
}

// SetStatus applies a status snapshot; it must run on the UI goroutine
func (li *LoadingIndicator) SetStatus(status model.LoadStatus) {
	li.status = status

	if status.SpinnerVisible {
		li.spinner.Show()
		li.spinner.Start()
	} else {
		li.spinner.Stop()
		li.spinner.Hide()
	}

	if status.State == model.LoadTimeout && status.RetryAffordance {
		li.message.Show()
		li.retryBtn.Show()
	} else {
		li.message.Hide()
		li.retryBtn.Hide()
	}
	li.Refresh()
}

// Status returns the last applied status
func (li *LoadingIndicator) Status() model.LoadStatus {
	return li.status
}

// SpinnerShown reports whether the progress bar is visible
func (li *LoadingIndicator) SpinnerShown() bool {
	return li.spinner.Visible()
}

// RetryShown reports whether the retry button is visible
func (li *LoadingIndicator) RetryShown() bool {
	return li.retryBtn.Visible()
}

// RefreshTexts re-reads localized strings
func (li *LoadingIndicator) RefreshTexts() {
	li.message.SetText(li.localization.GetText(KeyLoadFailed))
	li.retryBtn.SetText(IconRetry + " " + li.localization.GetText(KeyRetry))
}

func (li *LoadingIndicator) retry() {
	if li.onRetry != nil && li.status.ItemID != "" {
		li.onRetry(li.status.ItemID)
	}
}

// CreateRenderer implements fyne.Widget
func (li *LoadingIndicator) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(li.content)
}
