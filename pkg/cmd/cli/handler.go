package cli

import "github.com/nsyszr/toybroker/config"

type Handler struct {
	Migration *MigrateHandler
	Send      *SendHandler
}

func NewHandler(c *config.Config) *Handler {
	return &Handler{
		Migration: newMigrateHandler(c),
		Send:      newSendHandler(c),
	}
}
