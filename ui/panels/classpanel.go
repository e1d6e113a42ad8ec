// Package panels provides the side panel widgets: class palette, image
// list, and detection controls.
package panels

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/internal/app"
	"github.com/splat1745/VsionLab/pkg/colorutil"
	"github.com/splat1745/VsionLab/ui/canvas"
)

// ClassPanel lists the project's classes with color swatches and keeps the
// session's active class in sync with the selection.
type ClassPanel struct {
	state  *app.State
	canvas *canvas.AnnotationCanvas
	win    fyne.Window

	classes []annotation.Class
	list    *widget.List
	box     *fyne.Container
}

// NewClassPanel creates the class palette panel.
func NewClassPanel(state *app.State, cvs *canvas.AnnotationCanvas) *ClassPanel {
	cp := &ClassPanel{
		state:  state,
		canvas: cvs,
	}

	cp.list = widget.NewList(
		func() int { return len(cp.classes) },
		func() fyne.CanvasObject {
			swatch := fynecanvas.NewRectangle(color.Black)
			swatch.SetMinSize(fyne.NewSize(16, 16))
			return container.NewHBox(swatch, widget.NewLabel("class name"))
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			if i < 0 || i >= len(cp.classes) {
				return
			}
			c := cp.classes[i]
			row := obj.(*fyne.Container)
			swatch := row.Objects[0].(*fynecanvas.Rectangle)
			label := row.Objects[1].(*widget.Label)

			rgba, _ := colorutil.ParseHex(c.Color)
			swatch.FillColor = rgba
			swatch.Refresh()
			label.SetText(fmt.Sprintf("%d  %s", i+1, c.Name))
		},
	)
	cp.list.OnSelected = func(i widget.ListItemID) {
		if i >= 0 && i < len(cp.classes) {
			cp.state.Session.SelectClass(cp.classes[i].ID)
		}
	}

	addBtn := widget.NewButton("Add Class...", cp.onAddClass)

	cp.box = container.NewBorder(nil, addBtn, nil, nil, cp.list)

	state.On(app.EventClassesChanged, func(data interface{}) {
		if classes, ok := data.([]annotation.Class); ok {
			cp.SetClasses(classes)
		}
	})

	return cp
}

// SetWindow sets the parent window for dialogs.
func (cp *ClassPanel) SetWindow(win fyne.Window) {
	cp.win = win
}

// Container returns the panel container for embedding in layouts.
func (cp *ClassPanel) Container() fyne.CanvasObject {
	return cp.box
}

// SetClasses replaces the displayed class list.
func (cp *ClassPanel) SetClasses(classes []annotation.Class) {
	cp.classes = classes
	cp.list.Refresh()

	// Mirror the session's active class in the list selection.
	if active, ok := cp.state.Session.ActiveClass(); ok {
		for i, c := range cp.classes {
			if c.ID == active.ID {
				cp.list.Select(i)
				break
			}
		}
	}
}

// SelectIndex highlights the class at the given list position.
func (cp *ClassPanel) SelectIndex(i int) {
	if i >= 0 && i < len(cp.classes) {
		cp.list.Select(i)
	}
}

func (cp *ClassPanel) onAddClass() {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("e.g. person, car")

	colorEntry := widget.NewEntry()
	colorEntry.SetText(colorutil.FormatHex(colorutil.NextColor(len(cp.classes))))

	form := dialog.NewForm("Add Class", "Add", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Color", colorEntry),
		},
		func(ok bool) {
			if !ok || nameEntry.Text == "" {
				return
			}
			hex := colorEntry.Text
			if _, valid := colorutil.ParseHex(hex); !valid {
				hex = colorutil.FormatHex(colorutil.NextColor(len(cp.classes)))
			}
			if err := cp.state.AddClass(nameEntry.Text, hex); err != nil {
				dialog.ShowError(err, cp.win)
			}
		}, cp.win)
	form.Resize(fyne.NewSize(320, 180))
	form.Show()
}
