package model

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// YOLO implements Model with an exported YOLO network run through the
// OpenCV DNN module. Access to the network is serialized.
type YOLO struct {
	net    gocv.Net
	path   string
	labels []string

	inputSize int
	conf      float32
	nms       float32

	mu sync.Mutex
}

// Load opens the custom weights named by opts.Path. When that path is
// empty, missing or does not yield a network, the fallback weights are
// used instead. ErrModelLoad is returned if the fallback fails too.
func Load(opts Options, logger *zap.SugaredLogger) (*YOLO, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	def := DefaultOptions()
	if opts.InputSize <= 0 {
		opts.InputSize = def.InputSize
	}
	if opts.ConfThreshold <= 0 {
		opts.ConfThreshold = def.ConfThreshold
	}
	if opts.NMSThreshold <= 0 {
		opts.NMSThreshold = def.NMSThreshold
	}
	if opts.FallbackPath == "" {
		opts.FallbackPath = def.FallbackPath
	}

	path := opts.Path
	var net gocv.Net
	var err error

	if path != "" {
		net, err = openNet(path)
		if err != nil {
			logger.Warnf("Custom weights unusable (%v), falling back to %s", err, opts.FallbackPath)
		}
	}
	if path == "" || err != nil {
		path = opts.FallbackPath
		net, err = openNet(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
		}
	}

	var labels []string
	if opts.DatasetPath != "" {
		labels, err = LoadLabels(opts.DatasetPath)
		if err != nil {
			logger.Warnf("Class names unavailable (%v), using numeric labels", err)
		}
	}

	logger.Infof("Loaded detection model %s (%d classes named)", path, len(labels))

	return &YOLO{
		net:       net,
		path:      path,
		labels:    labels,
		inputSize: opts.InputSize,
		conf:      opts.ConfThreshold,
		nms:       opts.NMSThreshold,
	}, nil
}

func openNet(path string) (gocv.Net, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.Net{}, fmt.Errorf("weights %s: %w", path, err)
	}

	net := gocv.ReadNet(path, "")
	if net.Empty() {
		return gocv.Net{}, fmt.Errorf("weights %s: failed to load network", path)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return net, nil
}

// Path returns the weights file actually in use.
func (y *YOLO) Path() string {
	return y.path
}

// Labels returns the class names indexed by class id.
func (y *YOLO) Labels() []string {
	return y.labels
}

// Infer runs the network on frame.
//
// The frame is letterboxed into a square anchored at the top-left corner,
// scaled to the network input, and the raw output is decoded, filtered by
// confidence and reduced with non-maximum suppression.
func (y *YOLO) Infer(frame *gocv.Mat) (*Result, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	code, convert, err := toBGR(frame.Channels())
	if err != nil {
		return nil, err
	}
	src := *frame
	if convert {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(*frame, &bgr, code)
		src = bgr
	}

	rows, cols := src.Rows(), src.Cols()
	maxDim := max(rows, cols)

	square := gocv.NewMatWithSize(maxDim, maxDim, gocv.MatTypeCV8UC3)
	defer square.Close()

	roi := square.Region(image.Rect(0, 0, cols, rows))
	src.CopyTo(&roi)
	roi.Close()

	blob := gocv.BlobFromImage(square, 1.0/255.0, image.Pt(y.inputSize, y.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	out := y.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scale := float32(maxDim) / float32(y.inputSize)
	candidates := decodeOutput(data, dims[1], dims[2], scale, y.conf)

	return y.suppress(candidates, cols, rows), nil
}

// Close releases the network.
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.net.Close()
}

func (y *YOLO) suppress(candidates []candidate, width, height int) *Result {
	result := &Result{Width: width, Height: height}
	if len(candidates) == 0 {
		return result
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.box
		scores[i] = c.score
	}

	bounds := image.Rect(0, 0, width, height)
	for _, idx := range gocv.NMSBoxes(boxes, scores, y.conf, y.nms) {
		c := candidates[idx]
		result.Detections = append(result.Detections, Detection{
			ClassID:    c.classID,
			Label:      LabelFor(y.labels, c.classID),
			Confidence: c.score,
			Box:        c.box.Intersect(bounds),
		})
	}

	sort.SliceStable(result.Detections, func(i, j int) bool {
		return result.Detections[i].Confidence > result.Detections[j].Confidence
	})

	return result
}

type candidate struct {
	classID int
	score   float32
	box     image.Rectangle
}

// decodeOutput turns a raw [1, 4+nc, N] output into candidates whose best
// class score reaches conf. Boxes are center/size in network input pixels
// and are multiplied by scale. A transposed [1, N, 4+nc] layout is
// recognized by having more rows than columns.
func decodeOutput(data []float32, dim1, dim2 int, scale, conf float32) []candidate {
	attrs, anchors := dim1, dim2
	transposed := dim1 > dim2
	if transposed {
		attrs, anchors = dim2, dim1
	}
	if attrs < 5 || len(data) < attrs*anchors {
		return nil
	}

	at := func(attr, anchor int) float32 {
		if transposed {
			return data[anchor*attrs+attr]
		}
		return data[attr*anchors+anchor]
	}

	var out []candidate
	for i := 0; i < anchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < attrs-4; c++ {
			if s := at(4+c, i); s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < conf {
			continue
		}

		cx, cy := at(0, i), at(1, i)
		w, h := at(2, i), at(3, i)
		out = append(out, candidate{
			classID: best,
			score:   bestScore,
			box: image.Rect(
				int((cx-w/2)*scale),
				int((cy-h/2)*scale),
				int((cx+w/2)*scale),
				int((cy+h/2)*scale),
			),
		})
	}

	return out
}

// toBGR picks the conversion that brings a frame with the given channel
// count to 3-channel BGR.
func toBGR(channels int) (gocv.ColorConversionCode, bool, error) {
	switch channels {
	case 3:
		return 0, false, nil
	case 1:
		return gocv.ColorGrayToBGR, true, nil
	case 4:
		return gocv.ColorBGRAToBGR, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported frame with %d channels", channels)
	}
}
