package cuboid

// Copy переносит пересечение областей src и dst строками вдоль X через
// dst.CopyElement. Возвращает число скопированных ячеек; при пустом
// пересечении ничего не делает.
func Copy(dst Target, src Buffer) (int, error) {
	dr, sr := dst.Region(), src.Region()
	inter, ok := dr.Intersect(sr)
	if !ok {
		return 0, nil
	}

	run := inter.Size.X
	top := inter.Top()
	copied := 0
	for y := inter.Base.Y; y < top.Y; y++ {
		for z := inter.Base.Z; z < top.Z; z++ {
			di := dr.Index(inter.Base.X, y, z)
			si := sr.Index(inter.Base.X, y, z)
			if err := dst.CopyElement(src, di, si, run); err != nil {
				return copied, err
			}
			copied += run
		}
	}
	return copied, nil
}
