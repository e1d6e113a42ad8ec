package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/splat1745/VsionLab/internal/app"
	"github.com/splat1745/VsionLab/internal/detect"
)

const (
	defaultConfidence = 0.5
	defaultIoU        = 0.45
)

// DetectPanel holds the model controls and runs auto-labeling on the
// current image.
type DetectPanel struct {
	state *app.State
	win   fyne.Window

	modelEntry *widget.Entry
	confSlider *widget.Slider
	iouSlider  *widget.Slider
	confLabel  *widget.Label
	iouLabel   *widget.Label
	runBtn     *widget.Button
	box        *fyne.Container

	// Loaded network, reused until the model path changes.
	net       *detect.YOLONet
	loadedFor string

	onComplete func(added int)
}

// NewDetectPanel creates the detection panel.
func NewDetectPanel(state *app.State) *DetectPanel {
	dp := &DetectPanel{state: state}

	dp.modelEntry = widget.NewEntry()
	dp.modelEntry.SetPlaceHolder("path/to/model.onnx")
	browseBtn := widget.NewButton("...", dp.onBrowseModel)

	dp.confLabel = widget.NewLabel(fmt.Sprintf("Confidence: %.2f", defaultConfidence))
	dp.confSlider = widget.NewSlider(0.05, 0.95)
	dp.confSlider.Step = 0.05
	dp.confSlider.Value = defaultConfidence
	dp.confSlider.OnChanged = func(v float64) {
		dp.confLabel.SetText(fmt.Sprintf("Confidence: %.2f", v))
	}

	dp.iouLabel = widget.NewLabel(fmt.Sprintf("IoU: %.2f", defaultIoU))
	dp.iouSlider = widget.NewSlider(0.05, 0.95)
	dp.iouSlider.Step = 0.05
	dp.iouSlider.Value = defaultIoU
	dp.iouSlider.OnChanged = func(v float64) {
		dp.iouLabel.SetText(fmt.Sprintf("IoU: %.2f", v))
	}

	dp.runBtn = widget.NewButton("Run Detection", dp.onRun)

	dp.box = container.NewVBox(
		widget.NewLabel("Model:"),
		container.NewBorder(nil, nil, nil, browseBtn, dp.modelEntry),
		dp.confLabel,
		dp.confSlider,
		dp.iouLabel,
		dp.iouSlider,
		dp.runBtn,
	)

	return dp
}

// SetWindow sets the parent window for dialogs.
func (dp *DetectPanel) SetWindow(win fyne.Window) {
	dp.win = win
}

// Container returns the panel container for embedding in layouts.
func (dp *DetectPanel) Container() fyne.CanvasObject {
	return dp.box
}

// SetModelPath fills in the model path, used when restoring preferences.
func (dp *DetectPanel) SetModelPath(path string) {
	dp.modelEntry.SetText(path)
}

// ModelPath returns the configured model path.
func (dp *DetectPanel) ModelPath() string {
	return dp.modelEntry.Text
}

// OnComplete sets a callback fired after a successful detection run.
func (dp *DetectPanel) OnComplete(callback func(added int)) {
	dp.onComplete = callback
}

func (dp *DetectPanel) onBrowseModel() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		dp.modelEntry.SetText(reader.URI().Path())
	}, dp.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".onnx"}))
	fd.Show()
}

func (dp *DetectPanel) onRun() {
	path := dp.modelEntry.Text
	if path == "" {
		dialog.ShowError(fmt.Errorf("no model selected"), dp.win)
		return
	}

	if dp.net == nil || dp.loadedFor != path {
		if dp.net != nil {
			dp.net.Close()
			dp.net = nil
		}
		net, err := detect.LoadYOLONet(path, detect.DefaultInputSize)
		if err != nil {
			dialog.ShowError(err, dp.win)
			return
		}
		dp.net = net
		dp.loadedFor = path
	}

	added, err := dp.state.RunDetection(dp.net, dp.confSlider.Value, dp.iouSlider.Value)
	if err != nil {
		dialog.ShowError(err, dp.win)
		return
	}
	if dp.onComplete != nil {
		dp.onComplete(added)
	}
}
