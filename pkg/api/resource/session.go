package resource

import (
	"sort"
	"time"

	"github.com/nsyszr/toybroker/pkg/model"
)

type UserResource struct {
	UID         string         `json:"uid"`
	Platform    string         `json:"platform"`
	AppVersion  string         `json:"app_version"`
	Domain      string         `json:"domain"`
	Toys        []*ToyResource `json:"toys"`
	Connected   bool           `json:"connected"`
	ConnectedAt time.Time      `json:"connected_at"`
}

type UserListResource struct {
	Success bool            `json:"success"`
	Members []*UserResource `json:"users"`
	Count   int             `json:"count"`
}

func NewUser(m *model.Session) (out *UserResource) {
	out = &UserResource{
		UID:         m.UID,
		Platform:    m.Platform,
		AppVersion:  m.AppVersion,
		Domain:      m.Domain,
		Toys:        newToys(m.Toys),
		Connected:   true,
		ConnectedAt: m.ConnectedAt,
	}

	return // out
}

func NewUserList(m map[string]model.Session) (out *UserListResource) {
	out = &UserListResource{
		Success: true,
		Members: make([]*UserResource, 0),
	}

	for _, elem := range m {
		out.Members = append(out.Members, NewUser(&elem))
	}

	// Default sort by UID
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].UID < out.Members[j].UID
	})
	out.Count = len(out.Members)

	return // out
}
