package component

import (
	"slices"
	"sort"

	"github.com/lionforge/engine/internal/core/ecs"
)

type placement[T any] struct {
	layer int
	item  T
}

// layers keeps items in ascending layer buckets. Within a bucket items keep
// the order in which they were inserted.
type layers[T any] struct {
	keys     []int
	buckets  map[int][]*ecs.Featurable
	placed   map[*ecs.Featurable]placement[T]
	unsorted bool
}

func newLayers[T any]() *layers[T] {
	return &layers[T]{
		buckets: make(map[int][]*ecs.Featurable),
		placed:  make(map[*ecs.Featurable]placement[T]),
	}
}

func (l *layers[T]) insert(f *ecs.Featurable, layer int, item T) {
	if _, ok := l.placed[f]; ok {
		return
	}
	l.placed[f] = placement[T]{layer: layer, item: item}
	bucket, ok := l.buckets[layer]
	if !ok {
		l.keys = append(l.keys, layer)
		l.unsorted = true
	}
	l.buckets[layer] = append(bucket, f)
}

func (l *layers[T]) remove(f *ecs.Featurable) bool {
	p, ok := l.placed[f]
	if !ok {
		return false
	}
	delete(l.placed, f)
	bucket := slices.DeleteFunc(l.buckets[p.layer], func(x *ecs.Featurable) bool { return x == f })
	if len(bucket) == 0 {
		delete(l.buckets, p.layer)
		l.keys = slices.DeleteFunc(l.keys, func(k int) bool { return k == p.layer })
		return true
	}
	l.buckets[p.layer] = bucket
	return true
}

// move places f at the end of layer. Entities no longer tracked are ignored.
func (l *layers[T]) move(f *ecs.Featurable, layer int) {
	p, ok := l.placed[f]
	if !ok || p.layer == layer {
		return
	}
	l.remove(f)
	l.insert(f, layer, p.item)
}

func (l *layers[T]) sortKeys() {
	if l.unsorted {
		sort.Ints(l.keys)
		l.unsorted = false
	}
}

// each visits items by ascending layer.
func (l *layers[T]) each(fn func(T)) {
	l.sortKeys()
	for _, k := range l.keys {
		for _, f := range l.buckets[k] {
			fn(l.placed[f].item)
		}
	}
}

// layerKeys returns the distinct layers in ascending order.
func (l *layers[T]) layerKeys() []int {
	l.sortKeys()
	return slices.Clone(l.keys)
}

// layerOf reports the bucket f is currently placed in.
func (l *layers[T]) layerOf(f *ecs.Featurable) (int, bool) {
	p, ok := l.placed[f]
	return p.layer, ok
}
