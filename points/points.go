// Package points holds the long-form observation tables ImagePoints and
// WorldPoints. Both are immutable; filtering and derived-column operations
// return new values.
package points

import "errors"

// ErrInvalidSchema is returned when a table's primary key is violated.
var ErrInvalidSchema = errors.New("points: invalid schema")

// ImageRow is one 2D observation: a point seen by one camera at one sync
// instant, with its known board-frame object coordinate when available.
type ImageRow struct {
	SyncIndex int
	Port      int
	PointID   int

	ImgX, ImgY float64

	HasObj             bool
	ObjX, ObjY, ObjZ float64
}

// ImagePoints is a long-form table of 2D detections, one row per
// observation, keyed by (SyncIndex, Port, PointID).
type ImagePoints struct {
	Rows []ImageRow
}

// NewImagePoints validates and wraps rows. The primary key
// (sync_index, port, point_id) must be unique.
func NewImagePoints(rows []ImageRow) (ImagePoints, error) {
	seen := make(map[[3]int]struct{}, len(rows))
	for _, r := range rows {
		key := [3]int{r.SyncIndex, r.Port, r.PointID}
		if _, dup := seen[key]; dup {
			return ImagePoints{}, ErrInvalidSchema
		}
		seen[key] = struct{}{}
	}
	out := make([]ImageRow, len(rows))
	copy(out, rows)
	return ImagePoints{Rows: out}, nil
}

// Filter returns a new ImagePoints containing only rows for which keep
// returns true.
func (ip ImagePoints) Filter(keep func(ImageRow) bool) ImagePoints {
	var out []ImageRow
	for _, r := range ip.Rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return ImagePoints{Rows: out}
}

// UniqueSyncIndices returns the sorted set of distinct sync indices present.
func (ip ImagePoints) UniqueSyncIndices() []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range ip.Rows {
		if _, ok := seen[r.SyncIndex]; !ok {
			seen[r.SyncIndex] = struct{}{}
			out = append(out, r.SyncIndex)
		}
	}
	sortInts(out)
	return out
}

// WorldRow is one triangulated (or bundle-adjusted) 3D point estimate.
type WorldRow struct {
	SyncIndex int
	PointID   int
	X, Y, Z   float64
}

// WorldPoints is a long-form table of 3D estimates, one row per
// (SyncIndex, PointID).
type WorldPoints struct {
	Rows []WorldRow
}

// NewWorldPoints validates and wraps rows. The primary key
// (sync_index, point_id) must be unique.
func NewWorldPoints(rows []WorldRow) (WorldPoints, error) {
	seen := make(map[[2]int]struct{}, len(rows))
	for _, r := range rows {
		key := [2]int{r.SyncIndex, r.PointID}
		if _, dup := seen[key]; dup {
			return WorldPoints{}, ErrInvalidSchema
		}
		seen[key] = struct{}{}
	}
	out := make([]WorldRow, len(rows))
	copy(out, rows)
	return WorldPoints{Rows: out}, nil
}

// Filter returns a new WorldPoints containing only rows for which keep
// returns true.
func (wp WorldPoints) Filter(keep func(WorldRow) bool) WorldPoints {
	var out []WorldRow
	for _, r := range wp.Rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return WorldPoints{Rows: out}
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
