package game

type ResourceKind uint8

const (
	ResourceUnknown ResourceKind = iota // Matches every kind when filtering
	ResourceSample
	ResourceBitmap
	ResourceTempo
	ResourcePause
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceSample:
		return "sample"
	case ResourceBitmap:
		return "bitmap"
	case ResourceTempo:
		return "tempo"
	case ResourcePause:
		return "pause"
	}
	return "unknown"
}

// Resource describes a media file or value a chart refers to by id.
// Descriptors with a negative id are meta resources: they survive a
// resources-only reset.
type Resource struct {
	Kind  ResourceKind
	ID    int64
	Path  string // Relative to the chart file
	Extra interface{}
}

func (r Resource) IsMeta() bool { return r.ID < 0 }

func compareResource(a, b Resource) int {
	switch {
	case a.Kind < b.Kind:
		return -1
	case a.Kind > b.Kind:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func sameResource(a, b Resource) bool { return a.Kind == b.Kind && a.ID == b.ID }
