package frame

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"framecheck/internal/theme"
	"framecheck/internal/util"
)

// Glyph scales at the reference height of 630px.
const (
	refHeight     = 630
	titleScale    = 5
	lineScale     = 3
	captionScale  = 2
	maxCaption    = 4
	maxBackground = 10 << 20
)

var glyphs = basicfont.Face7x13

// Renderer draws panel images of a fixed size.
type Renderer struct {
	width, height int
	background    *image.RGBA
}

// NewRenderer returns a renderer for width x height images. background may be nil,
// in which case the theme gradient is used.
func NewRenderer(width, height int, background image.Image) *Renderer {
	r := &Renderer{width: width, height: height}
	if background != nil {
		r.background = cover(background, width, height)
	} else {
		r.background = gradient(width, height, theme.PanelTop, theme.PanelBottom)
	}
	return r
}

// Size returns the image dimensions.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

type textLine struct {
	text  string
	scale int
	gap   int
}

// Draw renders img onto a fresh canvas.
func (r *Renderer) Draw(img Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(dst, dst.Bounds(), r.background, image.Point{}, draw.Src)

	lines := r.layout(img)
	total := 0
	for _, l := range lines {
		total += glyphs.Height*l.scale + l.gap
	}
	y := (r.height - total) / 2
	if y < 0 {
		y = 0
	}
	for _, l := range lines {
		w := font.MeasureString(glyphs, l.text).Ceil() * l.scale
		drawText(dst, l.text, (r.width-w)/2, y, l.scale)
		y += glyphs.Height*l.scale + l.gap
	}
	return dst
}

// WritePNG encodes the rendered image.
func (r *Renderer) WritePNG(w io.Writer, img Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, r.Draw(img))
}

func (r *Renderer) unit(scale int) int {
	s := scale * r.height / refHeight
	if s < 1 {
		return 1
	}
	return s
}

// columns is how many glyphs of scale fit in 90% of the width.
func (r *Renderer) columns(scale int) int {
	return r.width * 9 / 10 / (glyphs.Advance * scale)
}

func (r *Renderer) layout(img Image) []textLine {
	var out []textLine

	ts := r.unit(titleScale)
	title := printable(img.Title)
	for ts > r.unit(lineScale) && len([]rune(title)) > r.columns(ts) {
		ts--
	}
	for _, l := range util.Wrap(title, r.columns(ts)) {
		out = append(out, textLine{text: l, scale: ts, gap: ts * 2})
	}

	ls := r.unit(lineScale)
	for _, line := range img.Lines {
		for _, l := range util.Wrap(printable(line), r.columns(ls)) {
			out = append(out, textLine{text: l, scale: ls, gap: ls * 3})
		}
	}

	if img.Caption != "" {
		cs := r.unit(captionScale)
		wrapped := util.Wrap(printable(img.Caption), r.columns(cs))
		if len(wrapped) > maxCaption {
			wrapped = wrapped[:maxCaption]
			wrapped[maxCaption-1] = util.Truncate(wrapped[maxCaption-1]+"...", r.columns(cs))
		}
		if len(out) > 0 {
			out[len(out)-1].gap += cs * 6
		}
		for _, l := range wrapped {
			out = append(out, textLine{text: l, scale: cs, gap: cs * 2})
		}
	}
	return out
}

// drawText draws s with a drop shadow, scaling the 7x13 glyphs by scale.
func drawText(dst draw.Image, s string, x, y, scale int) {
	w := font.MeasureString(glyphs, s).Ceil()
	if w <= 0 {
		return
	}
	layers := []struct {
		c   color.Color
		off int
	}{
		{theme.PanelShadow, scale},
		{theme.PanelText, 0},
	}
	for _, layer := range layers {
		mask := image.NewRGBA(image.Rect(0, 0, w, glyphs.Height))
		d := font.Drawer{
			Dst:  mask,
			Src:  image.NewUniform(layer.c),
			Face: glyphs,
			Dot:  fixed.P(0, glyphs.Ascent),
		}
		d.DrawString(s)
		rect := image.Rect(x+layer.off, y+layer.off, x+layer.off+w*scale, y+layer.off+glyphs.Height*scale)
		draw.NearestNeighbor.Scale(dst, rect, mask, mask.Bounds(), draw.Over, nil)
	}
}

var typography = strings.NewReplacer(
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"–", "-", "—", "-", "…", "...",
)

// printable maps text onto the ASCII glyphs the face has.
func printable(s string) string {
	s = typography.Replace(util.NormalizeWhitespace(s))
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

func gradient(w, h int, top, bottom color.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := 0
		if h > 1 {
			t = y * 255 / (h - 1)
		}
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 0xff,
		}
		draw.Draw(dst, image.Rect(0, y, w, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
	return dst
}

func lerp(a, b uint8, t int) uint8 {
	return uint8((int(a)*(255-t) + int(b)*t) / 255)
}

// cover scales src to fill w x h, cropping the overflow around the center.
func cover(src image.Image, w, h int) *image.RGBA {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	crop := sb
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := sb.Min.X + (sw-cw)/2
		crop = image.Rect(x0, sb.Min.Y, x0+cw, sb.Max.Y)
	} else if sw*h < sh*w {
		ch := sw * h / w
		y0 := sb.Min.Y + (sh-ch)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+ch)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// LoadBackground reads a PNG, JPEG, GIF or WebP image from a file path or an http(s) URL.
func LoadBackground(ctx context.Context, ref string, client *http.Client) (image.Image, error) {
	var rd io.Reader
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch background: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch background: status %d", resp.StatusCode)
		}
		rd = resp.Body
	} else {
		f, err := os.Open(ref)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rd = f
	}
	img, _, err := image.Decode(io.LimitReader(rd, maxBackground))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	return img, nil
}
