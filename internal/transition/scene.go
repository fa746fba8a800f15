package transition

import "github.com/ytget/storyviewer/internal/model"

// Scene is everything a renderer needs for one tick
type Scene struct {
	State           State
	Frame           model.Frame
	ContentOpacity  float32
	BackdropOpacity float32
	Scale           float32 // pull-to-dismiss shrink factor
	DragX           float32
	DragY           float32
}

// Layout holds the inputs of the frame function that stay fixed during one
// animation sequence.
type Layout struct {
	Anchor       model.Frame // thumbnail the viewer grows out of
	Viewport     model.Frame // full-screen bounds
	MinDragScale float32     // scale reached at a drag of one viewport height
	FadeDistance float32     // vertical drag, as a share of the height, that clears the backdrop
}

// Frame maps progress in [0,1] and the drag offsets to overlay bounds. At
// progress 0 with no drag the result is exactly the anchor; at 1 it is the
// viewport. A vertical drag also shrinks the frame around its center.
func (l Layout) Frame(progress, dragX, dragY float32) model.Frame {
	f := model.Lerp(l.Anchor, l.Viewport, clamp01(progress))
	if s := l.DragScale(dragY); s != 1 {
		f = f.Scale(s)
	}
	if dragX != 0 || dragY != 0 {
		f = f.Offset(dragX, dragY)
	}
	return f
}

// DragScale is the shrink factor for a vertical drag of dragY pixels
func (l Layout) DragScale(dragY float32) float32 {
	if l.Viewport.Height <= 0 || l.MinDragScale <= 0 || l.MinDragScale >= 1 || dragY == 0 {
		return 1
	}
	r := clamp01(abs32(dragY) / l.Viewport.Height)
	return 1 - r*(1-l.MinDragScale)
}

// BackdropOpacity fades with progress and with vertical drag distance
func (l Layout) BackdropOpacity(progress, dragY float32) float32 {
	o := clamp01(progress)
	if l.Viewport.Height > 0 && l.FadeDistance > 0 && dragY != 0 {
		o *= 1 - clamp01(abs32(dragY)/(l.Viewport.Height*l.FadeDistance))
	}
	return o
}

// Scene evaluates the full scene of an opening or open overlay
func (l Layout) Scene(state State, progress, dragX, dragY, contentOpacity float32) Scene {
	return Scene{
		State:           state,
		Frame:           l.Frame(progress, dragX, dragY),
		ContentOpacity:  contentOpacity,
		BackdropOpacity: l.BackdropOpacity(progress, dragY) * contentOpacity,
		Scale:           l.DragScale(dragY),
		DragX:           dragX,
		DragY:           dragY,
	}
}

// closeScene interpolates from the frame captured when closing began (t=1)
// down to the close target (t=0). Content fades out during the first three
// quarters of the way so it is gone before the frame lands.
func closeScene(target, from model.Frame, t, startOpacity, startBackdrop float32) Scene {
	t = clamp01(t)
	return Scene{
		State:           StateDismissing,
		Frame:           model.Lerp(target, from, t),
		ContentOpacity:  startOpacity * clamp01((t-closeFadeEnd)/(1-closeFadeEnd)),
		BackdropOpacity: startBackdrop * t,
		Scale:           1,
	}
}

// closeFadeEnd is the close progress at which content is fully transparent
const closeFadeEnd float32 = 0.25

// FallbackFrame is a small square centered in the viewport, used when a
// thumbnail cannot be measured.
func FallbackFrame(viewport model.Frame, size float32) model.Frame {
	c := viewport.Center()
	return model.Frame{X: c.X - size/2, Y: c.Y - size/2, Width: size, Height: size, CornerRadius: size / 2}
}
