package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lumen/pkg/errors"
)

func TestFormatRoundTrip(t *testing.T) {
	for _, f := range []Format{RGBA8Unorm, BGRA8Unorm, R8Unorm, RGBA16Float} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("depth24")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestUsageString(t *testing.T) {
	assert.Equal(t, "none", Usage(0).String())
	assert.Equal(t, "copy_dst|texture_binding", (CopyDst | TextureBinding).String())
	assert.Equal(t, "copy_src|0x40", (CopySrc | Usage(1<<6)).String())
}

func TestDescriptorSize(t *testing.T) {
	assert.Equal(t, 1920*1080*4, Descriptor{Width: 1920, Height: 1080, Format: BGRA8Unorm}.Size())
	assert.Equal(t, 16*16*8, Descriptor{Width: 16, Height: 16, Format: RGBA16Float}.Size())
	assert.Equal(t, 0, Descriptor{Width: 16, Height: 16, Format: Format(42)}.Size())
}

func TestSoftwareTextureReleaseIsIdempotent(t *testing.T) {
	dev := NewSoftwareDevice()
	tex := dev.CreateTexture(Descriptor{Width: 4, Height: 4, Format: R8Unorm})
	assert.Len(t, Texels(tex), 16)

	tex.Release()
	tex.Release()
	assert.Equal(t, int64(0), dev.Live())
	assert.Nil(t, Texels(tex))
}
