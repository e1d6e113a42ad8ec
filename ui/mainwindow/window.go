// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/splat1745/VsionLab/internal/app"
	"github.com/splat1745/VsionLab/internal/editor"
	"github.com/splat1745/VsionLab/internal/project"
	"github.com/splat1745/VsionLab/internal/version"
	"github.com/splat1745/VsionLab/ui/canvas"
	"github.com/splat1745/VsionLab/ui/panels"
)

const (
	prefKeyLastProject = "lastProjectID"
	prefKeyModelPath   = "lastModelPath"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *canvas.AnnotationCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	fitToWindowItem *fyne.MenuItem
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("VsionLab")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.restoreLastProject()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewAnnotationCanvas(mw.state.Session)
	mw.canvas.OnGestureError(func(err error) {
		dialog.ShowError(err, mw.Window)
	})
	mw.canvas.OnChanged(func() {
		if mw.state.Session.History().CanUndo() || mw.state.Session.History().CanRedo() {
			mw.state.SetModified(true)
		}
	})
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.updateStatus(fmt.Sprintf("Zoom: %.0f%%", zoom*100))
	})

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)
	mw.sidePanel.Detect.SetModelPath(mw.app.Preferences().String(prefKeyModelPath))
	mw.sidePanel.Detect.OnComplete(func(added int) {
		mw.app.Preferences().SetString(prefKeyModelPath, mw.sidePanel.Detect.ModelPath())
		mw.canvas.Refresh()
		mw.updateStatus(fmt.Sprintf("Detection added %d annotations", added))
	})

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1280, 800))
}

// createToolbar creates the toolbar with tool and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	selectBtn := widget.NewButton("Select", func() { mw.setTool(editor.ToolSelect) })
	boxBtn := widget.NewButton("Box", func() { mw.setTool(editor.ToolBox) })
	polyBtn := widget.NewButton("Polygon", func() { mw.setTool(editor.ToolPolygon) })

	zoomOutBtn := widget.NewButton("-", mw.onZoomOut)
	zoomInBtn := widget.NewButton("+", mw.onZoomIn)
	fitBtn := widget.NewButton("Fit", mw.onToggleFitToWindow)
	actualBtn := widget.NewButton("1:1", mw.onActualSize)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		selectBtn,
		boxBtn,
		polyBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project...", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Images...", func() { mw.sidePanel.Images.Import() }),
		fyne.NewMenuItem("Save Annotations", mw.onSave),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Selected", mw.onDeleteSelected),
		fyne.NewMenuItem("Complete Polygon", mw.onCompletePolygon),
		fyne.NewMenuItem("Cancel Polygon", mw.onEscape),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", mw.onToggleFitToWindow)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Select Tool", func() { mw.setTool(editor.ToolSelect) }),
		fyne.NewMenuItem("Box Tool", func() { mw.setTool(editor.ToolBox) }),
		fyne.NewMenuItem("Polygon Tool", func() { mw.setTool(editor.ToolPolygon) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, viewMenu, toolsMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupShortcuts wires keyboard handling: undo/redo/save on Ctrl, delete
// and escape on bare keys, digits for quick class selection.
func (mw *MainWindow) setupShortcuts() {
	mw.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onUndo() })
	mw.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onRedo() })
	mw.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onSave() })

	digits := map[fyne.KeyName]int{
		fyne.Key1: 0, fyne.Key2: 1, fyne.Key3: 2,
		fyne.Key4: 3, fyne.Key5: 4, fyne.Key6: 5,
		fyne.Key7: 6, fyne.Key8: 7, fyne.Key9: 8,
	}

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeleteSelected()
		case fyne.KeyEscape:
			mw.onEscape()
		case fyne.KeyReturn, fyne.KeyEnter:
			mw.onCompletePolygon()
		default:
			if n, ok := digits[ev.Name]; ok {
				if mw.state.Session.SelectClassByIndex(n) {
					mw.sidePanel.Classes.SelectIndex(n)
				}
			}
		}
	})
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if p, ok := data.(*project.Project); ok {
			mw.SetTitle("VsionLab - " + p.Name)
			mw.app.Preferences().SetInt(prefKeyLastProject, p.ID)
			mw.updateStatus("Project loaded: " + p.Name)
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.canvas.SetImage(mw.state.Image())
		mw.canvas.FitToWindow()
		if rec, ok := data.(project.ImageRecord); ok {
			mw.updateStatus(fmt.Sprintf("Loaded %s (%dx%d)", rec.Filename, rec.Width, rec.Height))
		}
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventImageLoadFailed, func(data interface{}) {
		if fail, ok := data.(app.ImageLoadFailure); ok {
			dialog.ShowError(fail.Err, mw.Window)
			mw.updateStatus("Could not load " + fail.Record.Filename)
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})

	mw.state.On(app.EventAnnotationsSaved, func(data interface{}) {
		if rec, ok := data.(project.ImageRecord); ok {
			mw.updateStatus("Saved annotations for " + rec.Filename)
		}
		mw.SetTitle("VsionLab - " + mw.state.Project.Name)
	})
}

// restoreLastProject reopens the project from the previous run, if any.
func (mw *MainWindow) restoreLastProject() {
	id := mw.app.Preferences().Int(prefKeyLastProject)
	if id <= 0 {
		return
	}
	if err := mw.state.OpenProject(id); err != nil {
		mw.updateStatus(fmt.Sprintf("Could not reopen project %d: %v", id, err))
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) setTool(t editor.Tool) {
	mw.state.Session.SetTool(t)
	switch t {
	case editor.ToolSelect:
		mw.updateStatus("Select tool")
	case editor.ToolBox:
		mw.updateStatus("Box tool")
	case editor.ToolPolygon:
		mw.updateStatus("Polygon tool (double-click or Enter to close)")
	}
	mw.canvas.Refresh()
}

// Menu action handlers

func (mw *MainWindow) onNewProject() {
	nameEntry := widget.NewEntry()
	descEntry := widget.NewEntry()

	form := dialog.NewForm("New Project", "Create", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Description", descEntry),
		},
		func(ok bool) {
			if !ok || nameEntry.Text == "" {
				return
			}
			if err := mw.state.CreateProject(nameEntry.Text, descEntry.Text, nil); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		}, mw.Window)
	form.Resize(fyne.NewSize(360, 200))
	form.Show()
}

func (mw *MainWindow) onOpenProject() {
	projects, err := mw.state.Store.ListProjects()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if len(projects) == 0 {
		dialog.ShowInformation("Open Project", "No projects yet. Create one first.", mw.Window)
		return
	}

	list := widget.NewList(
		func() int { return len(projects) },
		func() fyne.CanvasObject { return widget.NewLabel("project name") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(projects[i].Name)
		},
	)

	var d dialog.Dialog
	list.OnSelected = func(i widget.ListItemID) {
		d.Hide()
		if err := mw.state.OpenProject(projects[i].ID); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}

	d = dialog.NewCustom("Open Project", "Cancel", container.NewStack(list), mw.Window)
	d.Resize(fyne.NewSize(320, 400))
	d.Show()
}

func (mw *MainWindow) onSave() {
	if err := mw.state.SaveCurrent(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onUndo() {
	if mw.state.Session.Undo() {
		mw.state.SetModified(true)
		mw.canvas.Refresh()
	}
}

func (mw *MainWindow) onRedo() {
	if mw.state.Session.Redo() {
		mw.state.SetModified(true)
		mw.canvas.Refresh()
	}
}

func (mw *MainWindow) onDeleteSelected() {
	if mw.state.Session.DeleteSelected() {
		mw.state.SetModified(true)
		mw.canvas.Refresh()
	}
}

func (mw *MainWindow) onCompletePolygon() {
	mw.state.Session.CompletePolygon()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onEscape() {
	mw.state.Session.Escape()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.GetFitToWindow()
	mw.canvas.SetFitToWindow(enabled)

	if enabled {
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.ActualSize()
}

func (mw *MainWindow) disableFitToWindow() {
	mw.canvas.SetFitToWindow(false)
	mw.fitToWindowItem.Label = "  Fit to Window"
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About VsionLab",
		fmt.Sprintf("VsionLab v%s\n\n"+
			"An image annotation tool for object detection datasets.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
