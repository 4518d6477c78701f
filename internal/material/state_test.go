package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackUnpack(t *testing.T) {
	ids := []uint16{0, 1, 2, 255, 256, 4095, 32768, MaxID - 1, MaxID}
	datas := []uint16{0, 1, 7, 15, 0x00FF, 0x0F0F, 0x8000, 0xFFFF}

	for _, id := range ids {
		for _, data := range datas {
			s := Pack(id, data)
			gotID, gotData := Unpack(s)
			if gotID != id || gotData != data {
				t.Fatalf("Unpack(Pack(%d, %d)) = (%d, %d)", id, data, gotID, gotData)
			}
			if Pack(gotID, gotData) != s {
				t.Fatalf("повторная упаковка %d:%d изменила состояние", id, data)
			}
		}
	}
}

func TestStateLayout(t *testing.T) {
	s := Pack(5, 2)
	assert.Equal(t, State(5<<16|2), s)
	assert.Equal(t, uint16(5), s.ID())
	assert.Equal(t, uint16(2), s.Data())
	assert.Equal(t, "5:2", s.String())
}

func TestCanonicalName(t *testing.T) {
	for _, in := range []string{"Solid_Rock ", "solid rock", "SOLID_ROCK", "  solid__ _rock", "solid\trock"} {
		got := CanonicalName(in)
		assert.Equal(t, "solid_rock", got, "вход %q", in)
		assert.Equal(t, got, CanonicalName(got), "идемпотентность для %q", in)
	}
	assert.Equal(t, "", CanonicalName("  _ "))
}
