package theme

import (
	"fmt"
	"image/color"
)

// Panel palette. Backgrounds are drawn as a vertical gradient from Top to Bottom.
var (
	PanelTop    = color.RGBA{R: 0x2b, G: 0x1b, B: 0x54, A: 0xff}
	PanelBottom = color.RGBA{R: 0x8a, G: 0x63, B: 0xd2, A: 0xff}
	PanelText   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	PanelShadow = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x80}
)

// Banner returns the CLI banner.
func Banner() string {
	const magenta = "\033[35m"
	const cyan = "\033[36m"
	const reset = "\033[0m"

	art := "" +
		magenta + "  ┌─┐┬─┐┌─┐┌┬┐┌─┐┌─┐┬ ┬┌─┐┌─┐┬┌─\n" + reset +
		magenta + "  ├┤ ├┬┘├─┤│││├┤ │  ├─┤├┤ │  ├┴┐\n" + reset +
		magenta + "  └  ┴└─┴ ┴┴ ┴└─┘└─┘┴ ┴└─┘└─┘┴ ┴\n" + reset +
		cyan + "  who recast what, one frame at a time\n" + reset
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
