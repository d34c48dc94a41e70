package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

// GIFRecorder captures canvas frames for an animated GIF.
type GIFRecorder struct {
	width, height int
	frames        []*image.Paletted
}

func NewGIFRecorder(w, h int) *GIFRecorder {
	return &GIFRecorder{width: w, height: h}
}

const charW, charH = 8, 16

// Capture renders each braille dot of c as a block of pixels.
func (r *GIFRecorder) Capture(c *Canvas) {
	imgW, imgH := r.width*charW, r.height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for y := 0; y < r.height*4; y++ {
		for x := 0; x < r.width*2; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func (r *GIFRecorder) Frames() int { return len(r.frames) }

func (r *GIFRecorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 100/frameRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
