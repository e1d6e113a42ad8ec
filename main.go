// Package main provides the entry point for the VsionLab application.
package main

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	fyneapp "fyne.io/fyne/v2/app"

	"github.com/splat1745/VsionLab/internal/app"
	"github.com/splat1745/VsionLab/internal/project"
	"github.com/splat1745/VsionLab/internal/version"
	"github.com/splat1745/VsionLab/ui/mainwindow"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting VsionLab v%s", version.Version)

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("home directory: %v", err)
	}
	dbPath := filepath.Join(home, ".vsionlab", "vsionlab.db")

	store, err := project.New(dbPath)
	if err != nil {
		log.Fatalf("open project store: %v", err)
	}
	defer store.Close()

	fyneApp := fyneapp.NewWithID("com.vsionlab.app")
	state := app.NewState(store)

	win := mainwindow.New(fyneApp, state)

	// Optional project id argument overrides the remembered project.
	if len(os.Args) > 1 {
		if id, err := strconv.Atoi(os.Args[1]); err == nil {
			if err := state.OpenProject(id); err != nil {
				log.Printf("open project %d: %v", id, err)
			}
		}
	}

	win.ShowAndRun()
}
