package egl

import "fmt"

// Attrib is an attribute key or value in a surface attribute list
type Attrib int

// Attribute keys
const (
	RenderBuffer Attrib = iota + 0x3000
	VGColorspace
	VGAlphaFormat
	Width
	Height
	LargestPbuffer
	TextureFormat
	TextureTarget
	MipmapTexture
)

// Attribute values
const (
	NoTexture Attrib = iota + 0x3100
	BackBuffer
	SingleBuffer
	TextureRGB
	TextureRGBA
	Texture2D
)

// Boolean attribute values
const (
	False Attrib = 0
	True  Attrib = 1
)

var attribNames = map[Attrib]string{
	RenderBuffer:   "RENDER_BUFFER",
	VGColorspace:   "VG_COLORSPACE",
	VGAlphaFormat:  "VG_ALPHA_FORMAT",
	Width:          "WIDTH",
	Height:         "HEIGHT",
	LargestPbuffer: "LARGEST_PBUFFER",
	TextureFormat:  "TEXTURE_FORMAT",
	TextureTarget:  "TEXTURE_TARGET",
	MipmapTexture:  "MIPMAP_TEXTURE",
	NoTexture:      "NO_TEXTURE",
	BackBuffer:     "BACK_BUFFER",
	SingleBuffer:   "SINGLE_BUFFER",
	TextureRGB:     "TEXTURE_RGB",
	TextureRGBA:    "TEXTURE_RGBA",
	Texture2D:      "TEXTURE_2D",
}

func (a Attrib) String() string {
	if name, ok := attribNames[a]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", int(a))
}

// AttribPair is one key/value entry of an attribute list
type AttribPair struct {
	Key   Attrib
	Value Attrib
}

// AttribList is an ordered list of surface attributes
type AttribList []AttribPair

// Attribs builds an AttribList from alternating keys and values.
// A trailing key without a value is dropped.
func Attribs(kv ...Attrib) AttribList {
	list := make(AttribList, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		list = append(list, AttribPair{Key: kv[i], Value: kv[i+1]})
	}
	return list
}
