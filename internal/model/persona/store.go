package persona

import "strings"

// Store 为服务层和 handler 提供人格查询。
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Resolve(name string) Persona
	DefaultID() string
}

// MemoryStore 基于只读的内存切片实现 Store。
type MemoryStore struct {
	items     []Persona
	defaultID string
}

// NewMemoryStore 用给定人格构建 MemoryStore。
// 未知的 defaultID 依次回退到 pidgin、列表第一项。
func NewMemoryStore(items []Persona, defaultID string) *MemoryStore {
	s := &MemoryStore{items: append([]Persona(nil), items...)}

	defaultID = strings.ToLower(strings.TrimSpace(defaultID))
	if _, ok := s.FindByID(defaultID); ok {
		s.defaultID = defaultID
	} else if _, ok := s.FindByID(Pidgin); ok {
		s.defaultID = Pidgin
	} else if len(s.items) > 0 {
		s.defaultID = s.items[0].ID
	}
	return s
}

// List 返回全部人格。
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID 按 ID 查找人格。
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// DefaultID 返回请求未指定人格时使用的 ID。
func (s *MemoryStore) DefaultID() string {
	return s.defaultID
}

// Resolve 忽略大小写把请求的人格名映射到人格，为空或未知时使用默认人格。
func (s *MemoryStore) Resolve(name string) Persona {
	key := strings.ToLower(strings.TrimSpace(name))
	if key != "" {
		if p, ok := s.FindByID(key); ok {
			return p
		}
	}
	if p, ok := s.FindByID(s.defaultID); ok {
		return p
	}
	return Persona{ID: Pidgin, Prompt: pidginPrompt}
}
