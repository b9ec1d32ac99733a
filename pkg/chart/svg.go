package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

const (
	gridColor   = "#e5e7eb"
	axisColor   = "#374151"
	textColor   = "#111827"
	markerR     = 3
	strokeWidth = 2
)

// EncodeSVG writes scene as a standalone SVG document. Grid lines and tick
// labels are written first, then series in order, then the axes.
func EncodeSVG(w io.Writer, scene *Scene) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="sans-serif">`+"\n",
		num(scene.Width), num(scene.Height), num(scene.Width), num(scene.Height))
	fmt.Fprintf(bw, `<rect width="%s" height="%s" fill="white"/>`+"\n", num(scene.Width), num(scene.Height))

	if scene.Placeholder != nil {
		fmt.Fprintf(bw, `<rect x="0.5" y="0.5" width="%s" height="%s" fill="#f9fafb" stroke="%s" stroke-dasharray="4 4"/>`+"\n",
			num(scene.Width-1), num(scene.Height-1), gridColor)
		fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="middle" font-size="14" fill="#6b7280">%s</text>`+"\n",
			num(scene.Width/2), num(scene.Height/2), html.EscapeString(scene.Placeholder.Message))
		bw.WriteString("</svg>\n")
		return bw.Flush()
	}

	fmt.Fprintf(bw, `<g class="grid" stroke="%s" stroke-width="1">`+"\n", gridColor)
	for _, l := range scene.GridLines {
		writeLine(bw, l)
	}
	bw.WriteString("</g>\n")

	var bottom, left float64
	if len(scene.Axes) > 0 {
		bottom, left = scene.Axes[0].Y1, scene.Axes[0].X1
	}

	fmt.Fprintf(bw, `<g class="ticks" font-size="10" fill="%s">`+"\n", textColor)
	for _, t := range scene.XTicks {
		fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="middle">%s</text>`+"\n",
			num(t.Position), num(bottom+16), html.EscapeString(t.Label))
	}
	for _, t := range scene.YTicks {
		fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
			num(left-6), num(t.Position), html.EscapeString(t.Label))
	}
	bw.WriteString("</g>\n")

	for _, s := range scene.Series {
		fmt.Fprintf(bw, `<g class="series" data-source="%s">`+"\n", html.EscapeString(s.SourceID))
		fmt.Fprintf(bw, `<polyline fill="none" stroke="%s" stroke-width="%d" points="%s"/>`+"\n",
			s.Color, strokeWidth, s.Points())
		for _, v := range s.Vertices {
			fmt.Fprintf(bw, `<circle cx="%s" cy="%s" r="%d" fill="%s"><title>%s</title></circle>`+"\n",
				num(v.X), num(v.Y), markerR, s.Color, html.EscapeString(v.Tooltip))
		}
		bw.WriteString("</g>\n")
	}

	fmt.Fprintf(bw, `<g class="axes" stroke="%s" stroke-width="1.5">`+"\n", axisColor)
	for _, l := range scene.Axes {
		writeLine(bw, l)
	}
	bw.WriteString("</g>\n")

	fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="middle" font-size="12" fill="%s">%s</text>`+"\n",
		num(scene.Width/2), num(scene.Height-6), textColor, html.EscapeString(scene.XTitle))
	fmt.Fprintf(bw, `<text transform="translate(14,%s) rotate(-90)" text-anchor="middle" font-size="12" fill="%s">%s</text>`+"\n",
		num(scene.Height/2), textColor, html.EscapeString(scene.YTitle))

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeLine(w io.Writer, l Line) {
	fmt.Fprintf(w, `<line x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n", num(l.X1), num(l.Y1), num(l.X2), num(l.Y2))
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
