// Package view defines the projection levels callers can request when reading
// resources. Basic strips the large payload fields (connector configuration,
// definition spec) so listings stay cheap.
package view

type View string

const (
	ViewUnspecified View = "VIEW_UNSPECIFIED"
	ViewBasic       View = "VIEW_BASIC"
	ViewFull        View = "VIEW_FULL"
)

// FromParam maps a request parameter to a view. Unrecognized or empty values
// fall back to the basic view.
func FromParam(s string) View {
	switch View(s) {
	case ViewBasic:
		return ViewBasic
	case ViewFull:
		return ViewFull
	default:
		return ViewBasic
	}
}

func (v View) IsFull() bool {
	return v == ViewFull
}
