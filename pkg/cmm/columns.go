package cmm

import "fmt"

// ReadColumns2 reads a two-slot sequence to the end of the stream and
// returns each slot as its own column. A and B are converted with As, so
// they are an Element type, a slice of one, or a slice of slices.
func ReadColumns2[A, B any](r *Reader) ([]A, []B, error) {
	var (
		as []A
		bs []B
	)
	err := readColumns(r, 2, func(row []Value) error {
		a, err := column[A](row, 0)
		if err != nil {
			return err
		}
		b, err := column[B](row, 1)
		if err != nil {
			return err
		}
		as, bs = append(as, a), append(bs, b)
		return nil
	})
	return as, bs, err
}

// ReadColumns3 is ReadColumns2 for three slots.
func ReadColumns3[A, B, C any](r *Reader) ([]A, []B, []C, error) {
	var (
		as []A
		bs []B
		cs []C
	)
	err := readColumns(r, 3, func(row []Value) error {
		a, err := column[A](row, 0)
		if err != nil {
			return err
		}
		b, err := column[B](row, 1)
		if err != nil {
			return err
		}
		c, err := column[C](row, 2)
		if err != nil {
			return err
		}
		as, bs, cs = append(as, a), append(bs, b), append(cs, c)
		return nil
	})
	return as, bs, cs, err
}

// ReadColumns4 is ReadColumns2 for four slots.
func ReadColumns4[A, B, C, D any](r *Reader) ([]A, []B, []C, []D, error) {
	var (
		as []A
		bs []B
		cs []C
		ds []D
	)
	err := readColumns(r, 4, func(row []Value) error {
		a, err := column[A](row, 0)
		if err != nil {
			return err
		}
		b, err := column[B](row, 1)
		if err != nil {
			return err
		}
		c, err := column[C](row, 2)
		if err != nil {
			return err
		}
		d, err := column[D](row, 3)
		if err != nil {
			return err
		}
		as, bs, cs, ds = append(as, a), append(bs, b), append(cs, c), append(ds, d)
		return nil
	})
	return as, bs, cs, ds, err
}

func readColumns(r *Reader, arity int, fn func(row []Value) error) error {
	seq, err := r.ReadSequenceHeaders()
	if err != nil {
		return err
	}
	if n := len(seq.slots); n != arity {
		return valueErrf(ErrShapeMismatch, "sequence has %d slots, reading %d columns", n, arity)
	}
	for row, err := range seq.Rows() {
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("row %d: %w", seq.RowCount()-1, err)
		}
	}
	return nil
}

func column[T any](row []Value, i int) (T, error) {
	v, err := As[T](row[i])
	if err != nil {
		return v, fmt.Errorf("column %d: %w", i, err)
	}
	return v, nil
}
