package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"github.com/splat1745/VsionLab/internal/app"
	"github.com/splat1745/VsionLab/ui/canvas"
)

// SidePanel groups the class, image, and detection panels into tabs.
type SidePanel struct {
	Classes *ClassPanel
	Images  *ImagesPanel
	Detect  *DetectPanel

	tabs *container.AppTabs
}

// NewSidePanel creates the side panel with its tabs.
func NewSidePanel(state *app.State, cvs *canvas.AnnotationCanvas) *SidePanel {
	sp := &SidePanel{
		Classes: NewClassPanel(state, cvs),
		Images:  NewImagesPanel(state),
		Detect:  NewDetectPanel(state),
	}

	sp.tabs = container.NewAppTabs(
		container.NewTabItem("Images", sp.Images.Container()),
		container.NewTabItem("Classes", sp.Classes.Container()),
		container.NewTabItem("Detect", sp.Detect.Container()),
	)
	return sp
}

// SetWindow sets the parent window for dialogs on all panels.
func (sp *SidePanel) SetWindow(win fyne.Window) {
	sp.Classes.SetWindow(win)
	sp.Images.SetWindow(win)
	sp.Detect.SetWindow(win)
}

// Container returns the tabbed panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.tabs
}
