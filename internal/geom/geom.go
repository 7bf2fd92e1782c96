package geom

// Vec3 is a position or extent in world units.
type Vec3 struct {
	X, Y, Z int32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Min returns the per-axis minimum of v and o.
func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{min(v.X, o.X), min(v.Y, o.Y), min(v.Z, o.Z)}
}

// Max returns the per-axis maximum of v and o.
func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{max(v.X, o.X), max(v.Y, o.Y), max(v.Z, o.Z)}
}

// Box is an axis-aligned bounding box. Both corners are inclusive.
type Box struct {
	Min, Max Vec3
}

// BoxAt builds the box occupied by something of the given size placed with its
// minimum corner at pos. A zero or negative size still occupies one unit.
func BoxAt(pos Vec3, length, width, height int32) Box {
	return Box{
		Min: pos,
		Max: Vec3{
			X: pos.X + max(length-1, 0),
			Y: pos.Y + max(width-1, 0),
			Z: pos.Z + max(height-1, 0),
		},
	}
}

// NewBox returns the box spanned by two arbitrary corners.
func NewBox(a, b Vec3) Box {
	return Box{Min: a.Min(b), Max: a.Max(b)}
}

// Overlaps reports whether b and o share at least one unit on every axis.
func (b Box) Overlaps(o Box) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Contains reports whether o lies entirely inside b.
func (b Box) Contains(o Box) bool {
	return b.Min.X <= o.Min.X && o.Max.X <= b.Max.X &&
		b.Min.Y <= o.Min.Y && o.Max.Y <= b.Max.Y &&
		b.Min.Z <= o.Min.Z && o.Max.Z <= b.Max.Z
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	return Box{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Size returns the extent of the box along each axis.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the integer midpoint of the box.
func (b Box) Center() Vec3 {
	return Vec3{
		X: b.Min.X + (b.Max.X-b.Min.X)/2,
		Y: b.Min.Y + (b.Max.Y-b.Min.Y)/2,
		Z: b.Min.Z + (b.Max.Z-b.Min.Z)/2,
	}
}
