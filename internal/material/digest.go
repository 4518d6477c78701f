package material

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// digestKey ключ BLAKE3 для отпечатка таблицы материалов (ASCII, дополнен нулями)
var digestKey = [32]byte{
	'v', 'o', 'x', 'e', 'l', 'c', 'o', 'r', 'e', '.', 'm', 'a', 't', 'e', 'r', 'i',
	'a', 'l', '.', 't', 'a', 'b', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0,
}

// Digest возвращает отпечаток занятой таблицы: keyed BLAKE3 по строкам
// "id\tname\n" в порядке id. Два процесса с одинаковым отпечатком
// одинаково интерпретируют упакованные состояния корневых материалов.
func (r *Registry) Digest() string {
	h, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		// ключ фиксированной длины 32 байта
		panic("material: blake3 keyed hasher: " + err.Error())
	}
	for _, m := range r.Values() {
		fmt.Fprintf(h, "%d\t%s\n", m.ID(), CanonicalName(m.name))
	}
	return hex.EncodeToString(h.Sum(nil))
}
