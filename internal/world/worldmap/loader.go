package worldmap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// 地图文件：小端 int32。版本 2 起每格多一个 pvp 字节。
const (
	FormatV1 = 1
	FormatV2 = 2

	maxTextureName = 255
)

// Load 读地图文件。
func Load(id int, path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("worldmap: open map %d: %w", id, err)
	}
	defer f.Close()
	m, err := Decode(id, bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("worldmap: load %s: %w", path, err)
	}
	return m, nil
}

type fileReader struct {
	r   *bufio.Reader
	err error
}

func (fr *fileReader) readInt() int {
	if fr.err != nil {
		return 0
	}
	var v int32
	fr.err = binary.Read(fr.r, binary.LittleEndian, &v)
	return int(v)
}

func (fr *fileReader) readByte() byte {
	if fr.err != nil {
		return 0
	}
	var b byte
	b, fr.err = fr.r.ReadByte()
	return b
}

func (fr *fileReader) readString() string {
	if fr.err != nil {
		return ""
	}
	buf := make([]byte, 0, 16)
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			fr.err = err
			return ""
		}
		if b == 0 {
			return string(buf)
		}
		if len(buf) >= maxTextureName {
			fr.err = fmt.Errorf("texture name too long")
			return ""
		}
		buf = append(buf, b)
	}
}

func Decode(id int, r *bufio.Reader) (*Map, error) {
	fr := &fileReader{r: r}
	version := fr.readInt()
	width := fr.readInt()
	height := fr.readInt()
	if fr.err != nil {
		return nil, fr.err
	}
	if version != FormatV1 && version != FormatV2 {
		return nil, fmt.Errorf("unsupported map version %d", version)
	}
	m, err := New(id, width, height)
	if err != nil {
		return nil, err
	}

	count := fr.readInt()
	if count < 0 || count > 4096 {
		return nil, fmt.Errorf("bad texture count %d", count)
	}
	for i := 0; i < count; i++ {
		m.Textures = append(m.Textures, fr.readString())
	}
	m.NoZoneTexture = fr.readString()

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			t := Tile{
				Texture:   fr.readInt(),
				Zone:      fr.readInt(),
				EventType: EventType(fr.readInt()),
				EventData: fr.readInt(),
				Wall:      fr.readByte() != 0,
				PVP:       true,
			}
			if version >= FormatV2 {
				t.PVP = fr.readByte() != 0
			}
			if fr.err != nil {
				return nil, fmt.Errorf("tile (%d,%d): %w", x, y, fr.err)
			}
			m.SetTile(x, y, t)
		}
	}
	return m, nil
}

// Encode 按 FormatV2 写出，测试和内容生成用。
func (m *Map) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	put := func(v int) {
		_ = binary.Write(bw, binary.LittleEndian, int32(v))
	}
	putString := func(s string) {
		bw.WriteString(s)
		bw.WriteByte(0)
	}
	boolByte := func(b bool) byte {
		if b {
			return 1
		}
		return 0
	}

	put(FormatV2)
	put(m.Width)
	put(m.Height)
	put(len(m.Textures))
	for _, t := range m.Textures {
		putString(t)
	}
	putString(m.NoZoneTexture)
	for _, t := range m.tiles {
		put(t.Texture)
		put(t.Zone)
		put(int(t.EventType))
		put(t.EventData)
		bw.WriteByte(boolByte(t.Wall))
		bw.WriteByte(boolByte(t.PVP))
	}
	return bw.Flush()
}
