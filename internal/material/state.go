package material

import "fmt"

// State упакованное полное состояние блока: идентификатор материала в
// старших 16 битах, данные варианта в младших 16 битах.
type State uint32

const (
	// TableSize количество слотов в таблице идентификаторов
	TableSize = 1 << 16
	// MaxID наибольший допустимый идентификатор
	MaxID = TableSize - 1

	idShift  = 16
	dataBits = 0xFFFF
)

// Pack упаковывает пару (идентификатор, данные) в State
func Pack(id, data uint16) State {
	return State(uint32(id)<<idShift | uint32(data))
}

// Unpack возвращает пару (идентификатор, данные)
func Unpack(s State) (id, data uint16) {
	return s.ID(), s.Data()
}

// ID возвращает идентификатор материала
func (s State) ID() uint16 {
	return uint16(s >> idShift)
}

// Data возвращает данные варианта
func (s State) Data() uint16 {
	return uint16(s & dataBits)
}

func (s State) String() string {
	return fmt.Sprintf("%d:%d", s.ID(), s.Data())
}
