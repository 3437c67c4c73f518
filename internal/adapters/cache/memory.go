// Package cache implementa el cache en memoria del árbol efectivo por
// (página, conjunto de variantes). La invalidación es explícita al publicar;
// no hay eviction de fondo, una entrada vieja se pisa en el próximo publish.
package cache

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/domain"
)

type Memory struct {
	mu      sync.RWMutex
	entries map[string]*domain.PageConfig
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]*domain.PageConfig{}}
}

func (c *Memory) Get(key string) (*domain.PageConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.entries[key]
	return cfg, ok
}

func (c *Memory) Set(key string, cfg *domain.PageConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cfg
}

// InvalidatePage borra todas las entradas de una página, para cualquier
// conjunto de variantes. Las claves vienen de PageUC con forma
// storeID|pageType|variante...
func (c *Memory) InvalidatePage(storeID uuid.UUID, pageType string) {
	prefix := storeID.String() + "|" + pageType
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key == prefix || strings.HasPrefix(key, prefix+"|") {
			delete(c.entries, key)
		}
	}
}

func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
