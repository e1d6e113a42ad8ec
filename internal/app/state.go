// Package app provides application state, the project/image workflow, and events.
package app

import (
	"fmt"
	goimage "image"
	"log"
	"sync"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/internal/detect"
	"github.com/splat1745/VsionLab/internal/editor"
	"github.com/splat1745/VsionLab/internal/imageio"
	"github.com/splat1745/VsionLab/internal/project"
)

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectListChanged
	EventClassesChanged
	EventImageListChanged
	EventImageLoaded
	EventImageLoadFailed
	EventAnnotationsSaved
	EventDetectionComplete
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// ImageLoadFailure is the payload of EventImageLoadFailed.
type ImageLoadFailure struct {
	Record project.ImageRecord
	Err    error
}

// State holds the application state: the open project, its image list, the
// currently loaded image, and the editing session for it.
type State struct {
	mu sync.RWMutex

	Store *project.Store

	Project      *project.Project
	Images       []project.ImageRecord
	CurrentIndex int

	CurrentImage goimage.Image
	Session      *editor.Session

	Modified bool

	// Incremented for every image load request. Async loads compare their
	// captured value against it so a stale decode never lands.
	loadSeq int

	listeners map[EventType][]EventListener
}

// NewState creates a new application state backed by the given store.
func NewState(store *project.Store) *State {
	return &State{
		Store:        store,
		CurrentIndex: -1,
		Session:      editor.NewSession(nil),
		listeners:    make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the current image's annotations as unsaved.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// CreateProject creates and opens a new project.
func (s *State) CreateProject(name, description string, classes []annotation.Class) error {
	p, err := s.Store.CreateProject(name, description, classes)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	s.Emit(EventProjectListChanged, nil)
	return s.openProject(p)
}

// OpenProject loads a project and its image list.
func (s *State) OpenProject(projectID int) error {
	p, err := s.Store.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	return s.openProject(p)
}

func (s *State) openProject(p *project.Project) error {
	images, err := s.Store.ListImages(p.ID)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}

	s.mu.Lock()
	s.Project = p
	s.Images = images
	s.CurrentIndex = -1
	s.CurrentImage = nil
	s.Modified = false
	s.loadSeq++
	s.Session.SetClasses(p.Classes)
	s.Session.LoadAnnotations(nil)
	s.Session.SetEnabled(false)
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, p)
	s.Emit(EventClassesChanged, p.Classes)
	s.Emit(EventImageListChanged, images)

	if len(images) > 0 {
		return s.OpenImageAt(0)
	}
	return nil
}

// AddClass adds a class to the open project and refreshes the session's
// class list.
func (s *State) AddClass(name, color string) error {
	s.mu.RLock()
	p := s.Project
	s.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("no project open")
	}

	added, err := s.Store.AddClass(p.ID, name, color)
	if err != nil {
		return err
	}

	s.mu.Lock()
	p.Classes = append(p.Classes, *added)
	classes := append([]annotation.Class(nil), p.Classes...)
	s.mu.Unlock()

	s.Session.SetClasses(classes)
	s.Emit(EventClassesChanged, classes)
	return nil
}

// ImportImages copies the given files into the project and refreshes the
// image list. Files that fail to import are logged and skipped.
func (s *State) ImportImages(paths []string) (int, error) {
	s.mu.RLock()
	p := s.Project
	s.mu.RUnlock()
	if p == nil {
		return 0, fmt.Errorf("no project open")
	}

	imported := 0
	for _, path := range paths {
		if _, err := s.Store.ImportImage(p.ID, path); err != nil {
			log.Printf("import %s: %v", path, err)
			continue
		}
		imported++
	}

	images, err := s.Store.ListImages(p.ID)
	if err != nil {
		return imported, fmt.Errorf("refresh images: %w", err)
	}

	s.mu.Lock()
	hadNone := s.CurrentIndex < 0
	s.Images = images
	s.mu.Unlock()

	s.Emit(EventImageListChanged, images)

	if hadNone && len(images) > 0 {
		if err := s.OpenImageAt(0); err != nil {
			return imported, err
		}
	}
	return imported, nil
}

// OpenImageAt switches to the image at index. The pixel decode runs on a
// background goroutine with the session locked; annotations load only if
// no newer request superseded this one in the meantime.
func (s *State) OpenImageAt(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.Images) {
		s.mu.Unlock()
		return fmt.Errorf("image index %d out of range", index)
	}
	rec := s.Images[index]
	s.CurrentIndex = index
	s.CurrentImage = nil
	s.loadSeq++
	seq := s.loadSeq
	s.Session.SetEnabled(false)
	s.mu.Unlock()

	go func() {
		img, anns, err := s.loadImageData(rec)

		// The staleness check and the session handoff must happen in one
		// critical section: a newer request bumps loadSeq and disables the
		// session under the same lock, so a superseded load can never
		// re-enable the session or land its annotations afterwards.
		s.mu.Lock()
		if s.loadSeq != seq {
			s.mu.Unlock()
			return
		}
		if err != nil {
			// Session stays disabled with an empty set so nothing can be
			// committed against the missing image.
			s.Modified = false
			s.Session.LoadAnnotations(nil)
			s.mu.Unlock()
			log.Printf("open image %s: %v", rec.Filepath, err)
			s.Emit(EventImageLoadFailed, ImageLoadFailure{Record: rec, Err: err})
			return
		}
		s.CurrentImage = img
		s.Modified = false
		s.Session.LoadAnnotations(anns)
		s.Session.SetEnabled(true)
		s.mu.Unlock()

		s.Emit(EventImageLoaded, rec)
	}()
	return nil
}

func (s *State) loadImageData(rec project.ImageRecord) (goimage.Image, []annotation.Annotation, error) {
	img, err := imageio.Load(rec.Filepath)
	if err != nil {
		return nil, nil, fmt.Errorf("load image: %w", err)
	}
	anns, err := s.Store.LoadAnnotations(rec.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load annotations: %w", err)
	}
	return img, anns, nil
}

// NextImage advances to the next image in the list.
func (s *State) NextImage() error {
	s.mu.RLock()
	index := s.CurrentIndex + 1
	count := len(s.Images)
	s.mu.RUnlock()
	if index >= count {
		return nil
	}
	return s.OpenImageAt(index)
}

// PrevImage moves to the previous image in the list.
func (s *State) PrevImage() error {
	s.mu.RLock()
	index := s.CurrentIndex - 1
	s.mu.RUnlock()
	if index < 0 {
		return nil
	}
	return s.OpenImageAt(index)
}

// CurrentRecord returns the record for the loaded image, if any.
func (s *State) CurrentRecord() (project.ImageRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Images) {
		return project.ImageRecord{}, false
	}
	return s.Images[s.CurrentIndex], true
}

// Image returns the currently loaded image, or nil while a load is pending.
func (s *State) Image() goimage.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentImage
}

// SaveCurrent writes the session's annotation set for the current image.
// On failure the in-memory set is untouched and stays authoritative.
func (s *State) SaveCurrent() error {
	rec, ok := s.CurrentRecord()
	if !ok {
		return fmt.Errorf("no image open")
	}

	anns := s.Session.Store().All()
	if err := s.Store.SaveAnnotations(rec.ID, anns); err != nil {
		return fmt.Errorf("save annotations: %w", err)
	}

	s.mu.Lock()
	s.Modified = false
	s.Images[s.CurrentIndex].IsAnnotated = len(anns) > 0
	s.mu.Unlock()

	s.Emit(EventAnnotationsSaved, rec)
	s.Emit(EventImageListChanged, s.Images)
	return nil
}

// RunDetection runs the detector on the current image and imports the
// results into the session as a single undoable batch.
func (s *State) RunDetection(det detect.Detector, confidence, iouThreshold float64) (int, error) {
	img := s.Image()
	if img == nil {
		return 0, fmt.Errorf("no image loaded")
	}

	dets, err := det.Infer(img, confidence, iouThreshold)
	if err != nil {
		return 0, fmt.Errorf("run detection: %w", err)
	}

	added, err := s.Session.ImportDetections(dets)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.SetModified(true)
	}
	s.Emit(EventDetectionComplete, added)
	return added, nil
}
