package resource

import (
	"sort"

	"github.com/nsyszr/toybroker/pkg/model"
)

type ToyResource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NickName string `json:"nickname"`
	Status   string `json:"status"`
	Battery  int    `json:"battery"`
	Version  string `json:"version,omitempty"`
}

type ToyListResource struct {
	Success bool           `json:"success"`
	UserID  string         `json:"user_id"`
	Members []*ToyResource `json:"toys"`
	Count   int            `json:"count"`
}

func NewToy(m *model.Toy) *ToyResource {
	return &ToyResource{
		ID:       m.ID,
		Name:     m.Name,
		NickName: m.NickName,
		Status:   m.Status.String(),
		Battery:  m.Battery,
		Version:  m.Version,
	}
}

func NewToyList(m *model.Session) *ToyListResource {
	toys := newToys(m.Toys)
	return &ToyListResource{
		Success: true,
		UserID:  m.UID,
		Members: toys,
		Count:   len(toys),
	}
}

func newToys(m map[string]model.Toy) []*ToyResource {
	out := make([]*ToyResource, 0, len(m))
	for _, elem := range m {
		out = append(out, NewToy(&elem))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
