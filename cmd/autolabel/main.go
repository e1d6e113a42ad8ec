// Command autolabel runs YOLO inference over a project's unannotated
// images and writes the detections as annotations, without the GUI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/splat1745/VsionLab/internal/detect"
	"github.com/splat1745/VsionLab/internal/imageio"
	"github.com/splat1745/VsionLab/internal/project"
)

var (
	dbPath    string
	modelPath string
	projectID int
	conf      float64
	iou       float64
	inputSize int
	allImages bool
)

func main() {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".vsionlab", "vsionlab.db")

	rootCmd := &cobra.Command{
		Use:   "autolabel",
		Short: "Batch auto-labeling for VsionLab projects",
		RunE:  run,
	}

	rootCmd.Flags().StringVar(&dbPath, "db", defaultDB, "database path")
	rootCmd.Flags().StringVar(&modelPath, "model", "", "ONNX model path (required)")
	rootCmd.Flags().IntVar(&projectID, "project", 0, "project id (required)")
	rootCmd.Flags().Float64Var(&conf, "conf", 0.5, "confidence threshold")
	rootCmd.Flags().Float64Var(&iou, "iou", 0.45, "IoU threshold for NMS")
	rootCmd.Flags().IntVar(&inputSize, "input-size", detect.DefaultInputSize, "model input size")
	rootCmd.Flags().BoolVar(&allImages, "all", false, "relabel already annotated images too")
	rootCmd.MarkFlagRequired("model")
	rootCmd.MarkFlagRequired("project")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	store, err := project.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.GetProject(projectID)
	if err != nil {
		return err
	}
	if len(p.Classes) == 0 {
		return fmt.Errorf("project %q has no classes defined", p.Name)
	}

	net, err := detect.LoadYOLONet(modelPath, inputSize)
	if err != nil {
		return err
	}
	defer net.Close()

	images, err := store.ListImages(p.ID)
	if err != nil {
		return err
	}

	labeled := 0
	for _, rec := range images {
		if rec.IsAnnotated && !allImages {
			continue
		}

		img, err := imageio.Load(rec.Filepath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", rec.Filename, err)
			continue
		}

		dets, err := net.Infer(img, conf, iou)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", rec.Filename, err)
			continue
		}

		anns, err := detect.ToAnnotations(dets, p.Classes)
		if err != nil {
			return err
		}
		if err := store.SaveAnnotations(rec.ID, anns); err != nil {
			return err
		}

		fmt.Printf("%s: %d annotations\n", rec.Filename, len(anns))
		labeled++
	}

	fmt.Printf("Labeled %d of %d images\n", labeled, len(images))
	return nil
}
