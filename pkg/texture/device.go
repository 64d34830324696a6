package texture

import (
	"sync/atomic"
)

// Texture is a GPU resource handle created by a Device.
type Texture interface {
	Descriptor() Descriptor
	// Release frees the underlying resource. Calling it more than once is a no-op.
	Release()
}

// Device allocates textures. Implementations wrap the host's GPU API.
type Device interface {
	CreateTexture(desc Descriptor) Texture
}

// SoftwareDevice is a Device that backs textures with host memory. It is used
// by the simulator and by tests, which rely on its counters to observe
// allocations and releases.
type SoftwareDevice struct {
	created  atomic.Int64
	released atomic.Int64
	bytes    atomic.Int64
}

// NewSoftwareDevice creates an empty SoftwareDevice.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{}
}

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(desc Descriptor) Texture {
	d.created.Add(1)
	d.bytes.Add(int64(desc.Size()))
	return &softwareTexture{
		device: d,
		desc:   desc,
		texels: make([]byte, desc.Size()),
	}
}

// Live returns the number of textures created and not yet released.
func (d *SoftwareDevice) Live() int64 {
	return d.created.Load() - d.released.Load()
}

// Created returns the total number of textures ever created.
func (d *SoftwareDevice) Created() int64 {
	return d.created.Load()
}

// LiveBytes returns the backing memory held by live textures.
func (d *SoftwareDevice) LiveBytes() int64 {
	return d.bytes.Load()
}

type softwareTexture struct {
	device   *SoftwareDevice
	desc     Descriptor
	texels   []byte
	released atomic.Bool
}

func (t *softwareTexture) Descriptor() Descriptor {
	return t.desc
}

func (t *softwareTexture) Release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	t.device.released.Add(1)
	t.device.bytes.Add(-int64(len(t.texels)))
	t.texels = nil
}

// Texels exposes the backing store of a texture created by a SoftwareDevice,
// or nil for any other texture or after release.
func Texels(t Texture) []byte {
	if st, ok := t.(*softwareTexture); ok {
		return st.texels
	}
	return nil
}
