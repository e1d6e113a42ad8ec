// Package project persists projects, classes, images, and annotation sets
// in a local SQLite database. Imported image files are copied under a
// managed data directory next to the database.
package project

import (
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/internal/imageio"
)

//go:embed schema.sql
var schema string

// Project is a top-level annotation project with its class definitions.
type Project struct {
	ID          int
	Name        string
	Description string
	ProjectType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Classes     []annotation.Class
}

// ImageRecord describes one dataset image on disk.
type ImageRecord struct {
	ID          int
	ProjectID   int
	Filename    string
	Filepath    string
	Width       int
	Height      int
	IsAnnotated bool
	CreatedAt   time.Time
}

// Store handles database operations.
type Store struct {
	db      *sql.DB
	dataDir string
}

// New opens (creating if needed) the database at dbPath and ensures the
// schema and image data directory exist.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	dataDir := filepath.Join(filepath.Dir(dbPath), "images")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		db.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &Store{db: db, dataDir: dataDir}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateProject inserts a project and its initial classes.
func (s *Store) CreateProject(name, description string, classes []annotation.Class) (*Project, error) {
	now := time.Now()
	res, err := s.db.Exec(
		"INSERT INTO projects (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)",
		name, description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("project id: %w", err)
	}

	p := &Project{
		ID:          int(id),
		Name:        name,
		Description: description,
		ProjectType: "object_detection",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, c := range classes {
		added, err := s.AddClass(p.ID, c.Name, c.Color)
		if err != nil {
			return nil, err
		}
		p.Classes = append(p.Classes, *added)
	}
	return p, nil
}

// ListProjects returns all projects without their classes.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(
		"SELECT id, name, description, project_type, created_at, updated_at FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ProjectType, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject loads a project with its classes.
func (s *Store) GetProject(id int) (*Project, error) {
	var p Project
	err := s.db.QueryRow(
		"SELECT id, name, description, project_type, created_at, updated_at FROM projects WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.ProjectType, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	classes, err := s.ListClasses(id)
	if err != nil {
		return nil, err
	}
	p.Classes = classes
	return &p, nil
}

// ListClasses returns a project's classes in id order.
func (s *Store) ListClasses(projectID int) ([]annotation.Class, error) {
	rows, err := s.db.Query(
		"SELECT id, name, color FROM project_classes WHERE project_id = ? ORDER BY id", projectID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []annotation.Class
	for rows.Next() {
		var c annotation.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// AddClass adds a class to a project.
func (s *Store) AddClass(projectID int, name, color string) (*annotation.Class, error) {
	res, err := s.db.Exec(
		"INSERT INTO project_classes (project_id, name, color) VALUES (?, ?, ?)",
		projectID, name, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert class: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("class id: %w", err)
	}
	return &annotation.Class{ID: int(id), Name: name, Color: color}, nil
}

// DeleteClass removes a class. Annotations keep their stale class_id; the
// renderer falls back for dangling references.
func (s *Store) DeleteClass(classID int) error {
	if _, err := s.db.Exec("DELETE FROM project_classes WHERE id = ?", classID); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// ImportImage copies an image file into the managed data directory under
// a uuid-prefixed name and records it.
func (s *Store) ImportImage(projectID int, srcPath string) (*ImageRecord, error) {
	w, h, err := imageio.Dimensions(srcPath)
	if err != nil {
		return nil, fmt.Errorf("probe image: %w", err)
	}

	filename := filepath.Base(srcPath)
	stored := uuid.New().String() + "_" + filename
	dstPath := filepath.Join(s.dataDir, stored)
	if err := copyFile(srcPath, dstPath); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}

	now := time.Now()
	res, err := s.db.Exec(
		"INSERT INTO images (project_id, filename, filepath, width, height, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		projectID, filename, dstPath, w, h, now,
	)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("image id: %w", err)
	}

	return &ImageRecord{
		ID: int(id), ProjectID: projectID,
		Filename: filename, Filepath: dstPath,
		Width: w, Height: h, CreatedAt: now,
	}, nil
}

// ListImages returns a project's images in insertion order.
func (s *Store) ListImages(projectID int) ([]ImageRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, filename, filepath, width, height, is_annotated, created_at
		 FROM images WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []ImageRecord
	for rows.Next() {
		var r ImageRecord
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Filename, &r.Filepath,
			&r.Width, &r.Height, &r.IsAnnotated, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, r)
	}
	return images, rows.Err()
}

// LoadAnnotations returns an image's annotation set in insertion order.
func (s *Store) LoadAnnotations(imageID int) ([]annotation.Annotation, error) {
	rows, err := s.db.Query(
		"SELECT class_id, annotation_type, data FROM annotations WHERE image_id = ? ORDER BY id", imageID)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	defer rows.Close()

	var anns []annotation.Annotation
	for rows.Next() {
		var classID int
		var typ, data string
		if err := rows.Scan(&classID, &typ, &data); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a, err := annotation.FromParts(classID, typ, []byte(data))
		if err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}

// SaveAnnotations replaces an image's annotation set atomically, the bulk
// save the editor uses. A failure leaves the database untouched so the
// caller's in-memory set stays authoritative for retry.
func (s *Store) SaveAnnotations(imageID int, anns []annotation.Annotation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM annotations WHERE image_id = ?", imageID); err != nil {
		return fmt.Errorf("clear annotations: %w", err)
	}

	now := time.Now()
	for _, a := range anns {
		data, err := a.DataJSON()
		if err != nil {
			return fmt.Errorf("encode annotation: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO annotations (image_id, class_id, annotation_type, data, created_at) VALUES (?, ?, ?, ?, ?)",
			imageID, a.ClassID, a.TypeString(), string(data), now,
		); err != nil {
			return fmt.Errorf("insert annotation: %w", err)
		}
	}

	annotated := 0
	if len(anns) > 0 {
		annotated = 1
	}
	if _, err := tx.Exec("UPDATE images SET is_annotated = ? WHERE id = ?", annotated, imageID); err != nil {
		return fmt.Errorf("flag image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
