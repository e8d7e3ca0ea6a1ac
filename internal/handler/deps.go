package handler

import (
	"chatrelay/internal/app/chat"
	"chatrelay/internal/configs"
)

// AppDeps bundles the dependencies handlers need.
type AppDeps struct {
	Config *configs.AppConfig
	Hub    *chat.Hub
}
