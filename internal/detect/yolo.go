package detect

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultInputSize is the square network input used when none is given.
const DefaultInputSize = 640

// YOLONet runs a YOLOv8-family ONNX model through the OpenCV DNN module.
// The zero value is not usable; construct with LoadYOLONet and Close when
// done.
type YOLONet struct {
	net       gocv.Net
	inputSize int
}

// LoadYOLONet loads an ONNX detection model from disk.
func LoadYOLONet(modelPath string, inputSize int) (*YOLONet, error) {
	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("read onnx model %s: empty network", modelPath)
	}
	return &YOLONet{net: net, inputSize: inputSize}, nil
}

// Close releases the underlying network.
func (y *YOLONet) Close() error {
	return y.net.Close()
}

// Infer runs the model on img and returns NMS-filtered detections in
// image-pixel coordinates.
func (y *YOLONet) Infer(img image.Image, confidence, iouThreshold float64) ([]Detection, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	sz := y.inputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0,
		image.Pt(sz, sz), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	out := y.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output rank %d", len(dims))
	}
	rows := dims[1]    // 4 box params + class scores
	anchors := dims[2] // candidate count
	if rows < 5 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	numClasses := rows - 4

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output tensor: %w", err)
	}

	bounds := img.Bounds()
	scaleX := float64(bounds.Dx()) / float64(sz)
	scaleY := float64(bounds.Dy()) / float64(sz)

	var dets []Detection
	for j := 0; j < anchors; j++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			score := data[(4+c)*anchors+j]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if float64(bestScore) < confidence {
			continue
		}

		cx := float64(data[0*anchors+j]) * scaleX
		cy := float64(data[1*anchors+j]) * scaleY
		w := float64(data[2*anchors+j]) * scaleX
		h := float64(data[3*anchors+j]) * scaleY

		d := Detection{
			ClassID:    bestClass,
			X1:         cx - w/2,
			Y1:         cy - h/2,
			X2:         cx + w/2,
			Y2:         cy + h/2,
			Confidence: float64(bestScore),
		}
		d = clampToBounds(d, float64(bounds.Dx()), float64(bounds.Dy()))
		if d.X2 > d.X1 && d.Y2 > d.Y1 {
			dets = append(dets, d)
		}
	}

	return NMS(dets, iouThreshold), nil
}

func clampToBounds(d Detection, w, h float64) Detection {
	if d.X1 < 0 {
		d.X1 = 0
	}
	if d.Y1 < 0 {
		d.Y1 = 0
	}
	if d.X2 > w {
		d.X2 = w
	}
	if d.Y2 > h {
		d.Y2 = h
	}
	return d
}
