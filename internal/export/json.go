// Package export writes selected terrain patches to files other tools can read.
package export

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

var json = jsoniter.Config{
	EscapeHTML:                    false,
	MarshalFloatWith6Digits:       true,
	ObjectFieldMustBeSimpleString: true,
	SortMapKeys:                   true,
}.Froze()

// PatchRecord is the serialized form of one render-list entry.
type PatchRecord struct {
	X         float32  `json:"x"`
	Z         float32  `json:"z"`
	Scale     float32  `json:"scale"`
	Level     int      `json:"level"`
	Quadrants []string `json:"quadrants"`
	// Stitch is indexed by side: left, right, top, bottom.
	Stitch [4]uint8 `json:"stitch"`
}

// RenderListRecord is the serialized form of a render list.
type RenderListRecord struct {
	Patches   []PatchRecord `json:"patches"`
	Quadrants int           `json:"quadrants"`
	Levels    []int         `json:"levels"` // patch count per level
}

// NewRenderListRecord converts list into its serialized form.
func NewRenderListRecord(list *terrain.RenderList) RenderListRecord {
	rec := RenderListRecord{Patches: make([]PatchRecord, 0, list.Len())}
	for _, p := range list.Patches {
		pr := PatchRecord{
			X:         p.Offset.X(),
			Z:         p.Offset.Y(),
			Scale:     p.Scale,
			Level:     p.Level,
			Quadrants: make([]string, 0, 4),
			Stitch:    p.Stitch,
		}
		for _, q := range terrain.Quadrants {
			if p.Mask.Has(q) {
				pr.Quadrants = append(pr.Quadrants, q.String())
			}
		}
		rec.Patches = append(rec.Patches, pr)
		rec.Quadrants += len(pr.Quadrants)

		for len(rec.Levels) <= p.Level {
			rec.Levels = append(rec.Levels, 0)
		}
		rec.Levels[p.Level]++
	}
	return rec
}

// WriteRenderListJSON writes list to w as a single JSON document.
func WriteRenderListJSON(w io.Writer, list *terrain.RenderList) error {
	stream := json.BorrowStream(w)
	defer json.ReturnStream(stream)

	stream.WriteVal(NewRenderListRecord(list))
	stream.WriteRaw("\n")
	if stream.Error != nil {
		return stream.Error
	}
	return stream.Flush()
}
