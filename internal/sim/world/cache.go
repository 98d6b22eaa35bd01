package world

import "geocoin.ai/internal/persistence/snapshot"

// Cache is the ordered list of coins resident in one active cell.
type Cache struct {
	Cell  Cell
	Items []*Item
}

func (c *Cache) Len() int { return len(c.Items) }

func (c *Cache) Empty() bool { return len(c.Items) == 0 }

func (c *Cache) mementos() []snapshot.ItemV1 {
	out := make([]snapshot.ItemV1, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.Memento())
	}
	return out
}

func (c *Cache) removeAt(i int) *Item {
	it := c.Items[i]
	c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
	return it
}

type CacheView struct {
	Cell  Cell
	Items []ItemView
}

func (c *Cache) View() CacheView {
	return CacheView{Cell: c.Cell, Items: itemViews(c.Items)}
}
