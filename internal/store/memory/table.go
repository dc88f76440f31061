package memory

import "sync/atomic"

// Table хранит записи одного вида по целочисленному ключу в порядке добавления.
//
// NextID атомарен и может вызываться конкурентно; остальные методы
// полагаются на блокировку Store.
type Table[T any] struct {
	seq   atomic.Int64
	rows  map[int64]T
	order []int64
}

// NewTable создаёт пустую таблицу
func NewTable[T any]() *Table[T] {
	return &Table[T]{rows: make(map[int64]T)}
}

// NextID выдаёт новый идентификатор. Идентификаторы растут монотонно
// и не переиспользуются после удаления.
func (t *Table[T]) NextID() int64 {
	return t.seq.Add(1)
}

// Get возвращает запись по ключу
func (t *Table[T]) Get(id int64) (T, bool) {
	rec, ok := t.rows[id]
	return rec, ok
}

// Put сохраняет запись. Перезапись существующего ключа не меняет его позицию.
func (t *Table[T]) Put(id int64, rec T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = rec
}

// Delete удаляет запись, возвращает false если её не было
func (t *Table[T]) Delete(id int64) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	delete(t.rows, id)
	for i, key := range t.order {
		if key == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Scan возвращает подходящие записи в порядке добавления. nil-предикат выбирает все.
func (t *Table[T]) Scan(pred func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		rec := t.rows[id]
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Len количество записей
func (t *Table[T]) Len() int {
	return len(t.order)
}
