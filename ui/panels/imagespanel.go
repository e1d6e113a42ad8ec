package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/splat1745/VsionLab/internal/app"
	"github.com/splat1745/VsionLab/internal/project"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

// ImagesPanel lists the project's images and drives navigation between them.
type ImagesPanel struct {
	state *app.State
	win   fyne.Window

	images []project.ImageRecord
	list   *widget.List
	box    *fyne.Container
}

// NewImagesPanel creates the image list panel.
func NewImagesPanel(state *app.State) *ImagesPanel {
	ip := &ImagesPanel{state: state}

	ip.list = widget.NewList(
		func() int { return len(ip.images) },
		func() fyne.CanvasObject {
			return widget.NewLabel("image filename")
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			if i < 0 || i >= len(ip.images) {
				return
			}
			rec := ip.images[i]
			mark := "  "
			if rec.IsAnnotated {
				mark = "✓ "
			}
			obj.(*widget.Label).SetText(mark + rec.Filename)
		},
	)
	ip.list.OnSelected = func(i widget.ListItemID) {
		if err := ip.state.OpenImageAt(i); err != nil {
			dialog.ShowError(err, ip.win)
		}
	}

	importBtn := widget.NewButton("Import Images...", ip.onImport)
	prevBtn := widget.NewButton("< Prev", func() {
		if err := ip.state.PrevImage(); err != nil {
			dialog.ShowError(err, ip.win)
		}
	})
	nextBtn := widget.NewButton("Next >", func() {
		if err := ip.state.NextImage(); err != nil {
			dialog.ShowError(err, ip.win)
		}
	})
	nav := container.NewGridWithColumns(2, prevBtn, nextBtn)

	ip.box = container.NewBorder(importBtn, nav, nil, nil, ip.list)

	state.On(app.EventImageListChanged, func(data interface{}) {
		if images, ok := data.([]project.ImageRecord); ok {
			ip.images = images
			ip.list.Refresh()
		}
	})
	state.On(app.EventImageLoaded, func(data interface{}) {
		if rec, ok := data.(project.ImageRecord); ok {
			for i, r := range ip.images {
				if r.ID == rec.ID {
					ip.list.Select(i)
					break
				}
			}
		}
	})

	return ip
}

// SetWindow sets the parent window for dialogs.
func (ip *ImagesPanel) SetWindow(win fyne.Window) {
	ip.win = win
}

// Container returns the panel container for embedding in layouts.
func (ip *ImagesPanel) Container() fyne.CanvasObject {
	return ip.box
}

// Import opens the image import dialog.
func (ip *ImagesPanel) Import() {
	ip.onImport()
}

func (ip *ImagesPanel) onImport() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()

		count, err := ip.state.ImportImages([]string{path})
		if err != nil {
			dialog.ShowError(err, ip.win)
			return
		}
		if count == 0 {
			dialog.ShowError(fmt.Errorf("no images imported"), ip.win)
		}
	}, ip.win)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	fd.Show()
}
