package server

import (
	_ "embed"

	"github.com/mark3labs/mcp-go/mcp"
)

// Widget resource defaults
const (
	DefaultWidgetURI      = "ui://widget/places.html"
	DefaultWidgetMIMEType = "text/html+skybridge"
)

//go:embed assets/places.html
var placesWidgetHTML string

// Widget is the static document served from resources/read.
type Widget struct {
	URI      string
	MIMEType string
	HTML     string
}

// DefaultWidget returns the embedded places list widget.
func DefaultWidget() *Widget {
	return &Widget{
		URI:      DefaultWidgetURI,
		MIMEType: DefaultWidgetMIMEType,
		HTML:     placesWidgetHTML,
	}
}

// Contents returns the widget as resource contents.
func (w *Widget) Contents() mcp.TextResourceContents {
	return mcp.TextResourceContents{
		URI:      w.URI,
		MIMEType: w.MIMEType,
		Text:     w.HTML,
	}
}
