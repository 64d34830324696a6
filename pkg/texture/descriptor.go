package texture

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/lumen/pkg/errors"
)

// Format is a texel format.
type Format int

// Supported texel formats.
const (
	RGBA8Unorm Format = iota
	BGRA8Unorm
	R8Unorm
	RGBA16Float
)

var formatNames = [...]string{
	RGBA8Unorm:  "rgba8unorm",
	BGRA8Unorm:  "bgra8unorm",
	R8Unorm:     "r8unorm",
	RGBA16Float: "rgba16float",
}

// String implements fmt.Stringer
func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// BytesPerTexel returns the storage size of one texel, or 0 for an unknown format.
func (f Format) BytesPerTexel() int {
	switch f {
	case RGBA8Unorm, BGRA8Unorm:
		return 4
	case R8Unorm:
		return 1
	case RGBA16Float:
		return 8
	default:
		return 0
	}
}

// ParseFormat maps a format name, as produced by String, back to its Format.
func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}
	return 0, errors.Newf(errors.ErrorTypeValidation, "unknown texture format %q", s).WithDetail("format", s)
}

// Usage is a set of texture usage flags.
type Usage uint32

// Usage flags.
const (
	CopySrc Usage = 1 << iota
	CopyDst
	TextureBinding
	StorageBinding
	RenderAttachment
)

var usageNames = []struct {
	flag Usage
	name string
}{
	{CopySrc, "copy_src"},
	{CopyDst, "copy_dst"},
	{TextureBinding, "texture_binding"},
	{StorageBinding, "storage_binding"},
	{RenderAttachment, "render_attachment"},
}

// Has reports whether every flag in other is set.
func (u Usage) Has(other Usage) bool {
	return u&other == other
}

// String implements fmt.Stringer
func (u Usage) String() string {
	if u == 0 {
		return "none"
	}
	var parts []string
	rest := u
	for _, n := range usageNames {
		if u.Has(n.flag) {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Descriptor identifies a texture shape. Two requests share a cached texture
// only when their descriptors are equal field by field.
type Descriptor struct {
	Width  uint32
	Height uint32
	Format Format
	Usage  Usage
}

// Size returns the number of bytes needed to back the texture.
func (d Descriptor) Size() int {
	return int(d.Width) * int(d.Height) * d.Format.BytesPerTexel()
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%dx%d %s [%s]", d.Width, d.Height, d.Format, d.Usage)
}
