package certificates

import "time"

// Element is one positioned piece of a certificate layout. Coordinates
// and sizes are pixels on the design canvas.
type Element struct {
	ID      string `json:"id"`
	Content string `json:"content"`

	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	FontSize   int    `json:"font_size"`
	FontFamily string `json:"font_family"`
	Color      string `json:"color"`
	Align      string `json:"align"`
}

// Template is a certificate layout. A school keeps at most one
// template per TemplateType; saving again replaces the layout.
type Template struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`

	Name         string `json:"name"`
	TemplateType string `json:"template_type"`

	BackgroundKey string `json:"background_key,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`

	Elements []Element `json:"elements"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenderData carries the values substituted into the layout's
// placeholder variables.
type RenderData struct {
	StudentName    string
	CourseName     string
	CompletionDate string
	SchoolName     string
	CertificateID  string
}

// Rendered is a certificate ready for display: the layout with every
// placeholder resolved.
type Rendered struct {
	TemplateID    string    `json:"template_id"`
	TemplateType  string    `json:"template_type"`
	CertificateID string    `json:"certificate_id"`
	BackgroundURL string    `json:"background_url,omitempty"`
	Elements      []Element `json:"elements"`
}
