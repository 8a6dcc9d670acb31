package resource

import (
	"time"

	"github.com/nsyszr/toybroker/pkg/authority"
)

const pairingInstructions = "Open this URL to see the QR code, then scan it with the Lovense Remote app"

type PairingCodeResource struct {
	Success      bool      `json:"success"`
	UID          string    `json:"uid"`
	URL          string    `json:"qrcode_url"`
	Code         string    `json:"code,omitempty"`
	CallbackURL  string    `json:"callback_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Instructions string    `json:"instructions"`
}

func NewPairingCode(m *authority.PairingCode) *PairingCodeResource {
	return &PairingCodeResource{
		Success:      true,
		UID:          m.UID,
		URL:          m.URL,
		Code:         m.Code,
		CallbackURL:  m.CallbackURL,
		CreatedAt:    m.CreatedAt,
		Instructions: pairingInstructions,
	}
}
