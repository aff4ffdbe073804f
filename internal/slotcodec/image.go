package slotcodec

import (
	"fmt"
	"math"

	"github.com/statebridge/core/internal/wire"
)

// ColorFormat identifies the pixel layout of an image update.
type ColorFormat byte

const (
	ColorFormatColor      ColorFormat = 0
	ColorFormatColorAlpha ColorFormat = 1
	ColorFormatGray       ColorFormat = 2
	ColorFormatGrayAlpha  ColorFormat = 3
)

func (f ColorFormat) String() string {
	switch f {
	case ColorFormatColor:
		return "COLOR"
	case ColorFormatColorAlpha:
		return "COLOR_ALPHA"
	case ColorFormatGray:
		return "GRAY"
	case ColorFormatGrayAlpha:
		return "GRAY_ALPHA"
	default:
		return fmt.Sprintf("UNKNOWN_COLOR_FORMAT(%d)", byte(f))
	}
}

// imageSubKind is the only sub-kind currently defined for IMAGE
// frames; the field exists to let future sub-kinds share the frame
// shape without a wire break.
const imageSubKind = 1

// Rect is the optional dirty-rectangle carried alongside a full image
// update, letting a receiver blit only the changed region.
type Rect struct {
	X, Y, W, H uint16
}

// ImageUpdate is the decoded content of an IMAGE frame: a full pixel
// buffer, its declared dimensions and format, an optional dirty
// rectangle, and the image's paired histogram (possibly empty).
type ImageUpdate struct {
	Format    ColorFormat
	Height    uint16
	Width     uint16
	Rect      *Rect
	Pixels    []byte
	Histogram []float32
}

// EncodeImage lays out the sub-header per spec.md §4.3 (sub-kind,
// colour format, y/x size, rectangle-present, rectangle, data length)
// and concatenates pixels with the little-endian f32 histogram into a
// single payload; the histogram's own length is recovered on decode
// as payload-after-dataLen, so no separate length field is needed.
func EncodeImage(u ImageUpdate) (sub [wire.SubHeaderSize]byte, payload []byte) {
	sub[0] = imageSubKind
	sub[1] = byte(u.Format)
	wire.PutUint16(sub[2:4], u.Height)
	wire.PutUint16(sub[4:6], u.Width)
	if u.Rect != nil {
		sub[6] = 1
		wire.PutUint16(sub[7:9], u.Rect.X)
		wire.PutUint16(sub[9:11], u.Rect.Y)
		wire.PutUint16(sub[11:13], u.Rect.W)
		wire.PutUint16(sub[13:15], u.Rect.H)
	}
	wire.PutUint32(sub[15:19], uint32(len(u.Pixels)))

	payload = make([]byte, len(u.Pixels)+len(u.Histogram)*4)
	copy(payload, u.Pixels)
	for i, c := range u.Histogram {
		off := len(u.Pixels) + i*4
		wire.PutUint32(payload[off:off+4], math.Float32bits(c))
	}
	return sub, payload
}

// DecodeImage is the inverse of EncodeImage.
func DecodeImage(sub [wire.SubHeaderSize]byte, payload []byte) (ImageUpdate, error) {
	var u ImageUpdate
	u.Format = ColorFormat(sub[1])
	u.Height = wire.GetUint16(sub[2:4])
	u.Width = wire.GetUint16(sub[4:6])
	if sub[6] != 0 {
		u.Rect = &Rect{
			X: wire.GetUint16(sub[7:9]),
			Y: wire.GetUint16(sub[9:11]),
			W: wire.GetUint16(sub[11:13]),
			H: wire.GetUint16(sub[13:15]),
		}
	}

	dataLen := wire.GetUint32(sub[15:19])
	if int(dataLen) > len(payload) {
		return ImageUpdate{}, fmt.Errorf("slotcodec: image data length %d exceeds payload length %d", dataLen, len(payload))
	}
	u.Pixels = payload[:dataLen]

	histBytes := payload[dataLen:]
	if len(histBytes)%4 != 0 {
		return ImageUpdate{}, fmt.Errorf("slotcodec: image histogram tail length %d not a multiple of 4", len(histBytes))
	}
	if len(histBytes) > 0 {
		u.Histogram = make([]float32, len(histBytes)/4)
		for i := range u.Histogram {
			u.Histogram[i] = math.Float32frombits(wire.GetUint32(histBytes[i*4 : i*4+4]))
		}
	}
	return u, nil
}
